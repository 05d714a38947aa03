// Command langc compiles a source file (or, given the literal argument
// "test", a built-in smoke program) down to an SSA-IR module and reports
// success or failure. There are no flags: the command line carries exactly
// one positional argument.
package main

import (
	"fmt"
	"os"

	"pynext/compiler"
)

// smokeProgram is a recursive-Fibonacci scenario, used whenever the
// positional argument is the literal word "test".
const smokeProgram = `
extern def print_int(val: int)

def fib(n: int) -> int
  if n < 2
    return n
  end
  return fib(n-1) + fib(n-2)
end

def main()
  print_int(fib(10))
end
`

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: langc <source-file|test>")
		os.Exit(1)
	}

	arg := os.Args[1]
	var src string
	if arg == "test" {
		src = smokeProgram
	} else {
		data, err := os.ReadFile(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "langc:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	if _, err := compiler.Compile(src, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "langc:", err)
		os.Exit(1)
	}
}
