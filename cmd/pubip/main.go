// Command `pubip` prints the machine's public IP address.
//
// It races DNS queries (OpenDNS, Google) and HTTPS echo services (icanhazip,
// ipify) and prints the first address that validates. By default whichever
// family answers first wins; flags narrow the lookup to one family or ask
// for both.
//
// Usage:
//
//	pubip              - Print the first public IP found (v4 or v6)
//	pubip -4           - Print the public IPv4 address
//	pubip -6           - Print the public IPv6 address
//	pubip --both       - Print both family addresses
//	pubip sources      - List the built-in lookup targets
//	pubip status       - Show the pubipd daemon status
//
// Examples:
//
//	pubip -4 --timeout 2s
//	pubip --only-https --fallback-url https://ifconfig.co/ip
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/pubip/internal/buildinfo"
	"github.com/lc/pubip/internal/config"
	"github.com/lc/pubip/pkg/client"
	"github.com/lc/pubip/pkg/pubip"
)

func main() {
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var (
		useV4        bool
		useV6        bool
		useBoth      bool
		onlyHTTPS    bool
		timeout      time.Duration
		fallbackURLs []string
	)

	root := &cobra.Command{
		Use:   "pubip",
		Short: "Print the machine's public IP address",
		Long: `pubip discovers the machine's public-facing IP address by racing DNS
queries against resolvers that echo the asker's address (OpenDNS, Google)
and HTTPS requests against plain-text echo services (icanhazip, ipify).
The first answer that validates wins.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if useV4 && useV6 {
				useBoth = true
			}

			opts := pubip.Options{
				Timeout:      timeout,
				OnlyHTTPS:    onlyHTTPS,
				FallbackURLs: fallbackURLs,
			}
			if opts.Timeout == 0 {
				opts.Timeout = cfg.Lookup.Timeout
			}

			lookups := pubip.New(pubip.WithDefaults(pubip.Options{
				OnlyHTTPS:    cfg.Lookup.OnlyHTTPS,
				FallbackURLs: cfg.Lookup.FallbackURLs,
			}))
			ctx := context.Background()

			switch {
			case useBoth:
				v4, v6, err := lookups.LookupBoth(ctx, opts)
				if err != nil {
					return lookupError(err)
				}
				if v4 != "" {
					fmt.Println(v4)
				}
				if v6 != "" {
					fmt.Println(v6)
				}
				return nil
			case useV4:
				ip, err := lookups.LookupV4(ctx, opts)
				if err != nil {
					return lookupError(err)
				}
				fmt.Println(ip)
				return nil
			case useV6:
				ip, err := lookups.LookupV6(ctx, opts)
				if err != nil {
					return lookupError(err)
				}
				fmt.Println(ip)
				return nil
			default:
				ip, err := lookups.LookupAny(ctx, opts)
				if err != nil {
					return lookupError(err)
				}
				fmt.Println(ip)
				return nil
			}
		},
	}
	root.Flags().BoolVarP(&useV4, "ipv4", "4", false, "look up the public IPv4 address")
	root.Flags().BoolVarP(&useV6, "ipv6", "6", false, "look up the public IPv6 address")
	root.Flags().BoolVar(&useBoth, "both", false, "look up both family addresses")
	root.Flags().BoolVar(&onlyHTTPS, "only-https", false, "skip the DNS strategy")
	root.Flags().DurationVar(&timeout, "timeout", 0, "overall lookup timeout (default from config)")
	root.Flags().StringArrayVar(&fallbackURLs, "fallback-url", nil, "extra HTTPS echo service, raced after the built-ins (repeatable)")

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the pubip CLI and daemon.`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	// ---- sources command ----
	sourcesCmd := &cobra.Command{
		Use:     "sources",
		Short:   "List the built-in lookup targets",
		Example: "pubip sources",
		Run: func(_ *cobra.Command, _ []string) {
			printSources(pubip.DefaultSources())
		},
	}

	// ---- status command ----
	statusCmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the pubipd daemon status",
		Example: "pubip status",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			st, err := client.New(cfg.Socket.Path).Status(ctx)
			if err != nil {
				return fmt.Errorf("daemon unreachable at %s: %w", cfg.Socket.Path, err)
			}

			color.New(color.Bold).Println("PUBIPD STATUS:")
			fmt.Printf("version:  %s (%s)\n", st.Version, st.Commit)
			fmt.Printf("uptime:   %s\n", st.Uptime.Round(time.Second))
			fmt.Printf("lookups:  %d (%d failed)\n", st.Lookups, st.Failures)
			return nil
		},
	}

	root.AddCommand(sourcesCmd, statusCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// lookupError rewords the two terminal failures for humans.
func lookupError(err error) error {
	var nf *pubip.NotFoundError
	switch {
	case errors.As(err, &nf):
		return fmt.Errorf("no public address found: %w", nf.Cause)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("lookup timed out")
	default:
		return err
	}
}

// printSources renders the built-in DNS and HTTPS targets per family.
func printSources(src pubip.Sources) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Family", "Strategy", "Target"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
		tablewriter.Colors{tablewriter.FgYellowColor},
		tablewriter.Colors{tablewriter.FgGreenColor},
	)

	for _, fam := range []pubip.Family{pubip.V4, pubip.V6} {
		for _, t := range src.DNS[fam] {
			table.Append([]string{fam.String(), "dns", fmt.Sprintf("%s %s", t.Resolver, t.Name)})
		}
		for _, t := range src.HTTPS[fam] {
			table.Append([]string{fam.String(), "https", t.URL})
		}
	}

	color.New(color.Bold).Println("BUILT-IN LOOKUP TARGETS:")
	table.Render()
}
