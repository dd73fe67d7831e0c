package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oshokin/emergency-dispatch/internal/service/client"
)

// parseID converts a positional argument into a numeric record ID.
func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, err)
	}

	return id, nil
}

var (
	initServerURL string
	initAdmin     string

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the settings file for later commands.",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop, _ := commandContext()
			defer stop()

			return client.InitSettings(ctx, cfgPath, initServerURL, initAdmin)
		},
	}
)

var (
	tokenIdentity string
	tokenSecret   string

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Exchange the bootstrap secret for a bearer token.",
		Long: `Obtains a bearer token from the server's token endpoint.

The identity defaults to username@hostname and the secret to the
bootstrap_secret from the settings file (or DISPATCH_BOOTSTRAP_SECRET).`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.Token(ctx, opts, tokenIdentity, tokenSecret)
		},
	}
)

var (
	reportLocation string
	reportType     string
	reportPriority int

	reportCmd = &cobra.Command{
		Use:   "report [description]",
		Short: "Report a new emergency.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.Report(ctx, opts, args[0], reportLocation, reportType, reportPriority)
		},
	}
)

var (
	assignEmergencyID uint64

	assignCmd = &cobra.Command{
		Use:   "assign [responder-id]...",
		Short: "Dispatch responders to an emergency.",
		Long: `Assigns the listed responders to an emergency as one batch.

The batch is atomic: if any responder is unknown, inactive or busy, no
responder is assigned.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.Assign(ctx, opts, assignEmergencyID, args)
		},
	}
)

var (
	allocateEmergencyID uint64
	allocateResourceID  uint64
	allocateQuantity    uint64

	allocateCmd = &cobra.Command{
		Use:   "allocate",
		Short: "Draw resource units for an emergency.",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.Allocate(ctx, opts, allocateEmergencyID, allocateResourceID, allocateQuantity)
		},
	}
)

var (
	statusEmergencyID uint64

	statusCmd = &cobra.Command{
		Use:   "status [new-status]",
		Short: "Update the status of an emergency you are assigned to.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.UpdateStatus(ctx, opts, statusEmergencyID, args[0])
		},
	}
)

var (
	registerID       string
	registerName     string
	registerType     string
	registerLocation string

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Register a responder unit.",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.Register(ctx, opts, registerID, registerName, registerType, registerLocation)
		},
	}
)

var (
	resourceQuantity uint64
	resourceLocation string

	addResourceCmd = &cobra.Command{
		Use:   "add-resource [name]",
		Short: "Register a resource pool.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.AddResource(ctx, opts, args[0], resourceQuantity, resourceLocation)
		},
	}
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize [identity]",
	Short: "Grant an identity coordination rights (admin only).",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop, opts := commandContext()
		defer stop()

		return client.Authorize(ctx, opts, args[0])
	},
}

var (
	showResponders bool

	emergencyCmd = &cobra.Command{
		Use:   "emergency [id]",
		Short: "Show an emergency record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if showResponders {
				return client.ShowAssignedResponders(ctx, opts, id)
			}

			return client.ShowEmergency(ctx, opts, id)
		},
	}
)

var responderCmd = &cobra.Command{
	Use:   "responder [identity]",
	Short: "Show a responder record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop, opts := commandContext()
		defer stop()

		return client.ShowResponder(ctx, opts, args[0])
	},
}

var resourceCmd = &cobra.Command{
	Use:   "resource [id]",
	Short: "Show a resource record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop, opts := commandContext()
		defer stop()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		return client.ShowResource(ctx, opts, id)
	},
}

var (
	eventsLimit int

	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Show the notification log (authorized personnel only).",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop, opts := commandContext()
			defer stop()

			return client.Events(ctx, opts, eventsLimit)
		},
	}
)

//nolint:gochecknoinits,funlen // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().StringVar(&initServerURL, "server-url", "", "dispatch server URL to store")
	initCmd.Flags().StringVar(&initAdmin, "admin", "", "admin identity, defaults to username@hostname")

	err := initCmd.MarkFlagRequired("server-url")
	if err != nil {
		panic(err)
	}

	tokenCmd.Flags().StringVar(&tokenIdentity, "identity", "", "identity to embed in the token")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "bootstrap secret, defaults to settings file")

	reportCmd.Flags().StringVarP(&reportLocation, "location", "l", "", "where the emergency is happening")
	reportCmd.Flags().StringVar(&reportType, "type", "", "MEDICAL, FIRE, POLICE, NATURAL_DISASTER or ACCIDENT")
	reportCmd.Flags().IntVarP(&reportPriority, "priority", "p", 0, "severity from 1 (lowest) to 5 (highest)")

	assignCmd.Flags().Uint64VarP(&assignEmergencyID, "emergency", "e", 0, "emergency ID")

	allocateCmd.Flags().Uint64VarP(&allocateEmergencyID, "emergency", "e", 0, "emergency ID")
	allocateCmd.Flags().Uint64VarP(&allocateResourceID, "resource", "r", 0, "resource ID")
	allocateCmd.Flags().Uint64VarP(&allocateQuantity, "quantity", "q", 0, "units to allocate")

	statusCmd.Flags().Uint64VarP(&statusEmergencyID, "emergency", "e", 0, "emergency ID")

	registerCmd.Flags().StringVar(&registerID, "id", "", "responder identity, defaults to username@hostname")
	registerCmd.Flags().StringVar(&registerName, "name", "", "human-readable unit name")
	registerCmd.Flags().
		StringVar(&registerType, "type", "", "MEDICAL, FIRE_DEPARTMENT, POLICE, RESCUE_TEAM or VOLUNTEER")
	registerCmd.Flags().StringVarP(&registerLocation, "location", "l", "", "unit's home location")

	addResourceCmd.Flags().Uint64VarP(&resourceQuantity, "quantity", "q", 0, "units available")
	addResourceCmd.Flags().StringVarP(&resourceLocation, "location", "l", "", "where the resource is stored")

	emergencyCmd.Flags().BoolVar(&showResponders, "responders", false, "list assigned responder identities instead")

	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 0, "maximum number of events, 0 for all")

	rootCmd.AddCommand(
		initCmd,
		tokenCmd,
		reportCmd,
		assignCmd,
		allocateCmd,
		statusCmd,
		registerCmd,
		addResourceCmd,
		authorizeCmd,
		emergencyCmd,
		responderCmd,
		resourceCmd,
		eventsCmd,
	)
}
