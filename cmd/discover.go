// Package cmd holds the auxiliary CLI subcommands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/camgrid/internal/config"
	"github.com/smazurov/camgrid/internal/discovery"
	"github.com/smazurov/camgrid/internal/logging"
)

// CreateDiscoverCmd creates the discover command. It runs a single
// synchronous scan cycle and prints what answered, optionally saving
// the results as a streams file.
func CreateDiscoverCmd() *cobra.Command {
	var subnets []string
	var timeout time.Duration
	var savePath string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan local subnets for RTSP devices",
		Long: `Probes every host on the local /24 subnets (or the subnets given via --subnet) ` +
			`on the RTSP port and prints the devices that answered.`,
		Run: func(cmd *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "warn",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)

			opts := discovery.Options{
				ProbeTimeout: timeout,
			}
			if len(subnets) > 0 {
				opts.Subnets = func() []string { return subnets }
			}
			svc := discovery.NewService(opts)

			fmt.Println("Scanning for RTSP devices, this can take a while...")
			svc.ScanOnce(cmd.Context())
			fmt.Print(svc.String())

			if savePath == "" {
				return
			}
			var entries []config.StreamEntry
			for _, d := range svc.ActiveStreams() {
				entries = append(entries, config.StreamEntry{URL: d.URL, Name: d.Name})
			}
			if err := config.SaveStreams(savePath, entries); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to save streams file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Saved %d streams to %s\n", len(entries), savePath)
		},
	}

	cmd.Flags().StringSliceVar(&subnets, "subnet", nil, "Subnet prefix to scan (first three octets, repeatable); defaults to local interfaces")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "Per-host probe timeout")
	cmd.Flags().StringVarP(&savePath, "save", "s", "", "Write discovered devices to this streams file")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")

	return cmd
}
