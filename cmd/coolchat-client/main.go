package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/OlenaPysarenkoQA/CoolChat/internal/discovery"
)

func main() {
	app := cli.NewApp()
	app.Name = "coolchat-client"
	app.Usage = "Terminal client for the CoolChat server"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr,a",
			Usage: "Server host:port; skips LAN discovery",
		},
		cli.IntFlag{
			Name:  "discovery-port",
			Usage: "UDP port to probe for servers",
			Value: discovery.DefaultPort,
		},
	}
	app.Action = runClient

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runClient(ctx *cli.Context) error {
	addr := ctx.String("addr")
	if addr == "" {
		fmt.Println("Scanning the network for a chat server...")
		found, err := discovery.Discover(ctx.Int("discovery-port"), 5, 2*time.Second)
		if err != nil {
			return err
		}
		fmt.Printf("Server found at %s\n", found)
		addr = found
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	fmt.Println("Connection established!")

	// Server lines go straight to the terminal, including the handshake
	// prompts; stdin lines go straight to the server.
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
	}()

	go func() {
		writer := bufio.NewWriter(conn)
		stdin := bufio.NewScanner(os.Stdin)
		for stdin.Scan() {
			if _, err := writer.WriteString(stdin.Text() + "\n"); err != nil {
				return
			}
			if err := writer.Flush(); err != nil {
				return
			}
		}
	}()

	<-done
	fmt.Println("Disconnected from server.")
	return nil
}
