package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"hdxecho/internal/config"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"
)

const (
	version_major = 1
	version_minor = 0
	app_name      = "HDX-Echo Client"
)

func main() {
	socket := pflag.StringP("socket", "s", config.Default().Server.Socket, "hdx-echo socket path")
	pflag.Parse()

	fmt.Printf("\n%s V.%d.%d\n", app_name, version_major, version_minor)

	conn, err := net.Dial("unix", *socket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] connect %s: %v\n", *socket, err)
		os.Exit(1)
	}
	defer conn.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hdx> ",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "QUIT",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println("CONNECTED", *socket)
	fmt.Println(`Type "QUIT" to exit`)

	// replies and events are printed above the prompt
	go func() {
		sc := bufio.NewScanner(conn)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			fmt.Fprintln(rl.Stdout(), "RECV:", sc.Text())
		}
		fmt.Fprintln(rl.Stdout(), "SOCKET CLOSED")
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			fmt.Println("Bye.")
			return
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			fmt.Println("WRITE ERROR:", err)
			return
		}
	}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("PLAY"),
		readline.PcItem("PAUSE"),
		readline.PcItem("VOLUME"),
		readline.PcItem("SKIP"),
		readline.PcItem("STOP"),
		readline.PcItem("STATUS"),
		readline.PcItem("SPECTRUM"),
		readline.PcItem("WHOAMI"),
		readline.PcItem("ABOUT"),
		readline.PcItem("PING"),
		readline.PcItem("QUIT"),
	)
}
