package main

import (
	"fmt"
	"net"
	"os"
	"sort"
	"time"

	"github.com/samber/lo"

	"httpwire/internal/conn"
)

const addr = ":42069"

// tcplistener is a diagnostic: it accepts raw TCP streams, parses one
// request off each, dumps it, and answers with a minimal close
// response.
func main() {
	tcp, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Println("ERROR: failed to open.\n", err.Error())
		os.Exit(1)
	}
	defer tcp.Close()

	fmt.Println("Listening for TCP traffic on", addr)
	for {
		c, err := tcp.Accept()
		if err != nil {
			fmt.Println("ERROR: failed to accept.\n", err)
			continue
		}
		go handleConn(c)
	}
}

func handleConn(nc net.Conn) {
	defer nc.Close()
	_ = nc.SetDeadline(time.Now().Add(5 * time.Second)) // optional safety

	c := conn.NewServerConn(nc, nc)
	req, err := c.ReadRequest()
	if err != nil {
		fmt.Println("ERROR: failed to parse request:", err)
		return
	}

	fmt.Printf("Request line:\n- Method: %s\n- Target: %s\n- Version: %s\n",
		req.RequestLine.Method, req.RequestLine.Target, req.RequestLine.Version)

	fmt.Println("Headers:")
	if len(req.Headers) == 0 {
		fmt.Println("- (none)")
	} else {
		keys := lo.Keys(req.Headers)
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("- %s: %s\n", k, req.Headers.Get(k))
		}
	}

	fmt.Println("Body:")
	if len(req.Body) == 0 {
		fmt.Println("- (none)")
	} else {
		fmt.Println(string(req.Body))
	}

	resp := "HTTP/1.1 200 Ok\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 2\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"OK"
	_, _ = nc.Write([]byte(resp))
}
