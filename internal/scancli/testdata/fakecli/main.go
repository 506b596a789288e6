// Package main is a stand-in for the scan CLI. It prints what it is told to,
// echoes its arguments and exits with the requested status.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func main() {
	stdout := flag.String("stdout", "", "content to write to stdout")
	stderr := flag.String("stderr", "", "content to write to stderr")
	exitCode := flag.Int("exit", 0, "exit code to return")
	echoEnv := flag.String("env", "", "environment variable to print")
	flag.Parse()

	if *stdout != "" {
		fmt.Fprintln(os.Stdout, *stdout)
	}
	if *stderr != "" {
		fmt.Fprintln(os.Stderr, *stderr)
	}
	if *echoEnv != "" {
		fmt.Fprintf(os.Stdout, "%s=%s\n", *echoEnv, os.Getenv(*echoEnv))
	}
	if args := flag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stdout, "args: %s\n", strings.Join(args, " "))
	}
	os.Exit(*exitCode)
}
