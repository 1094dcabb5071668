/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Command ota-install is the installer CLI: a single cobra command
// accepting -i/--input, -p/--progress-file, and -v, wired with
// signal-driven cancellation. Exit codes: 0 success, 1 install failure,
// 2 argument error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anhhao17/ota-updater/internal/deviceconfig"
	"github.com/anhhao17/ota-updater/ota"
	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/otalog"
	"github.com/anhhao17/ota-updater/progress"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		inputPath    string
		progressPath string
		verbose      bool
		deviceConfig string
	)

	cmd := &cobra.Command{
		Use:          "ota-install",
		Short:        "Install a streaming OTA bundle onto the current device slot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			otalog.SetLevel(verbose)

			dev, derr := deviceconfig.Load(deviceConfig)
			if derr != nil {
				return derr
			}

			var sink progress.Sink
			if progressPath != "" {
				sink = progress.NewFileSink(progressPath)
			} else {
				console := progress.NewConsoleSink(os.Stdout)
				defer console.Close()
				sink = console
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			_, rerr := ota.Run(ctx, ota.Config{
				InputPath: inputPath,
				Device:    dev,
				Sink:      sink,
			})
			if rerr != nil {
				return rerr
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "bundle input path, or - for stdin")
	cmd.Flags().StringVarP(&progressPath, "progress-file", "p", "", "progress file path (console output when unset)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVar(&deviceConfig, "device-config", "", "device config path (default "+deviceconfig.DefaultPath+")")
	_ = cmd.MarkFlagRequired("input")

	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if _, isOTA := err.(otaerr.Error); isOTA {
			return 1
		}
		// Anything not wrapped as otaerr.Error came from cobra's own
		// argument parsing (unknown flag, missing required flag, bad
		// flag value) rather than from the install pipeline.
		return 2
	}
	return 0
}
