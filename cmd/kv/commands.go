package kv

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := conn.DoString("SET", args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(reply.Text())
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Gets the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := conn.DoString("GET", args[0])
			if err != nil {
				return err
			}
			fmt.Println(reply.Text())
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key...]",
		Short: "Deletes one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := conn.DoString(append([]string{"DEL"}, args...)...)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %s key(s)\n", reply.Text())
			return nil
		},
	}
	existsCmd = &cobra.Command{
		Use:   "exists [key...]",
		Short: "Counts how many of the given keys exist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := conn.DoString(append([]string{"EXISTS"}, args...)...)
			if err != nil {
				return err
			}
			fmt.Println(reply.Text())
			return nil
		},
	}
	incrByCmd = &cobra.Command{
		Use:   "incrby [key] [delta]",
		Short: "Atomically increments the integer value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := conn.DoString("INCRBY", args[0], args[1])
			if err != nil {
				return err
			}
			if err := reply.Err(); err != nil {
				return err
			}
			fmt.Println(reply.Text())
			return nil
		},
	}
	rawCmd = &cobra.Command{
		Use:   "raw [command] [args...]",
		Short: "Sends an arbitrary command to the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := conn.DoString(args...)
			if err != nil {
				return err
			}
			fmt.Println(reply.Text())
			return nil
		},
	}
)
