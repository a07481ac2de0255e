package main

import (
	"fmt"
	"io"

	"github.com/blocktree/exception-adapter/exception"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	SQLException     = exception.Declare("SQLException")
	TimeoutException = exception.Declare("TimeoutException")
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Show orphan throws and nested try-blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}
}

func runDemo(w io.Writer) error {
	ok := color.New(color.FgGreen).SprintFunc()

	//没有可以跳转的上下文，只打印
	exception.Throw(TimeoutException)
	exception.Throwf(SQLException, "null %s", "SQLException")

	fmt.Fprintf(w, "\n-> Test1: Try-Catch\n")
	status := exception.Try(func() {
		exception.Try(func() {
			exception.Throwf(TimeoutException, "recall %s", TimeoutException)
		}).Catch(TimeoutException, func(f *exception.Frame) {
			fmt.Fprintf(w, "\tcaught %s\n", f)
		}).End()

		exception.Throw(SQLException)
	}).Catch(SQLException, func(f *exception.Frame) {
		fmt.Fprintf(w, "\tcaught %s raised in %s\n", f.Tag(), f.Origin())
	}).Final(func() {
		fmt.Fprintf(w, "\tfinally\n")
	}).End()

	if status != exception.Handled {
		return fmt.Errorf("nested demo ended %s", status)
	}
	fmt.Fprintf(w, "-> Test1: %s\n", ok("ok"))

	fmt.Fprintf(w, "\n-> Test2: Rethrow\n")
	exception.Try(func() {
		exception.Try(func() {
			exception.Throwf(SQLException, "query failed")
		}).Catch(SQLException, func(f *exception.Frame) {
			fmt.Fprintf(w, "\tinner caught %s, rethrowing\n", f)
			f.Rethrow()
		}).End()
	}).Catch(SQLException, func(f *exception.Frame) {
		fmt.Fprintf(w, "\touter caught %s\n", f)
	}).End()
	fmt.Fprintf(w, "-> Test2: %s\n", ok("ok"))
	return nil
}
