package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/petems/speaker-tap/internal/audio"
	"github.com/spf13/cobra"
)

func newDevicesCmd(root *rootFlags) *cobra.Command {
	var (
		direction   string
		copyDefault bool
		use         string
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		Long: `List the devices a capture can open. Speaker capture lists output
devices, which are recorded in loopback; microphone capture lists inputs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := root.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("direction") {
				direction = env.cfg.Audio.Direction
			}
			dir, err := audio.ParseDirection(direction)
			if err != nil {
				return err
			}

			application, backend, err := env.newApp()
			if err != nil {
				return err
			}
			defer backend.Close()

			devices, err := application.ListDevices(dir)
			if err != nil {
				return err
			}
			printDevices(cmd.OutOrStdout(), devices)

			if copyDefault {
				for _, d := range devices {
					if d.Default {
						if err := clipboard.WriteAll(d.ID); err != nil {
							return fmt.Errorf("failed to copy device id: %w", err)
						}
						fmt.Fprintf(cmd.ErrOrStderr(), "Copied %s to clipboard\n", d.ID)
						break
					}
				}
			}

			if use != "" {
				if err := application.SetDirection(dir); err != nil {
					return err
				}
				if err := application.SetDevice(use); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s device %s\n", dir, use)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "speaker", "speaker or microphone")
	cmd.Flags().BoolVar(&copyDefault, "copy-default", false, "copy the default device id to the clipboard")
	cmd.Flags().StringVar(&use, "use", "", "save this device id (and the direction) as the capture default")
	return cmd
}

func printDevices(w io.Writer, devices []audio.Device) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEFAULT\tNAME\tID")
	for _, d := range devices {
		mark := ""
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, d.Name, d.ID)
	}
	tw.Flush()
}
