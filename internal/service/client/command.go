package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/emergency-dispatch/internal/config"
	"github.com/oshokin/emergency-dispatch/internal/logger"
	"github.com/oshokin/emergency-dispatch/internal/service/common"
)

// Options configures dispatch-cli behaviour shared by all operations.
type Options struct {
	// ConfigPath to the YAML settings file, defaults to the standard
	// filename when empty.
	ConfigPath string

	// ServerURL overrides the server URL from config when specified.
	ServerURL string

	// Token is the bearer token for authenticated calls. When empty, the
	// DISPATCH_TOKEN environment variable is consulted.
	Token string
}

// tokenEnvVariable names the environment variable holding the bearer token.
const tokenEnvVariable = "DISPATCH_TOKEN"

// errNoServerURL indicates missing server configuration.
var errNoServerURL = errors.New("no server URL configured")

// connect loads settings and builds an authenticated API client.
func connect(ctx context.Context, opts *Options) (*common.Client, *config.Config, error) {
	ctx = logger.WithName(ctx, "dispatch-cli")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	serverURL := cfg.ServerURL
	if opts.ServerURL != "" {
		serverURL = opts.ServerURL
	}

	if serverURL == "" {
		return nil, nil, errNoServerURL
	}

	token := opts.Token
	if token == "" {
		token = os.Getenv(tokenEnvVariable)
	}

	client, err := common.NewClient(serverURL,
		common.WithCallTimeout(cfg.Timeout),
		common.WithToken(token))
	if err != nil {
		return nil, nil, err
	}

	logger.DebugKV(ctx, "Connected to dispatch server", "server_url", serverURL)

	return client, cfg, nil
}

// printJSON renders a record as indented JSON on stdout.
func printJSON(record any) error {
	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	fmt.Println(string(encoded))

	return nil
}

// InitSettings writes a settings file with the provided server URL and
// identity so later commands can run without flags.
func InitSettings(ctx context.Context, configPath, serverURL, adminIdentity string) error {
	ctx = logger.WithName(ctx, "dispatch-cli")

	if serverURL == "" {
		return errNoServerURL
	}

	if adminIdentity == "" {
		detected, err := common.DetectIdentity()
		if err != nil {
			return err
		}

		adminIdentity = detected
	}

	cfg := &config.Config{
		ServerURL:     serverURL,
		AdminIdentity: adminIdentity,
	}

	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	logger.InfoKV(ctx, "Settings written", "path", configPath, "server_url", serverURL, "admin", adminIdentity)

	return nil
}

// Token exchanges the bootstrap secret for a bearer token and prints it.
// The identity defaults to the detected username@hostname.
func Token(ctx context.Context, opts *Options, identity, secret string) error {
	client, cfg, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	if identity == "" {
		identity, err = common.DetectIdentity()
		if err != nil {
			return err
		}
	}

	if secret == "" {
		secret = cfg.BootstrapSecret
	}

	token, err := client.Authenticate(ctx, identity, secret)
	if err != nil {
		return err
	}

	fmt.Println(token)

	return nil
}

// Report records a new emergency and prints the created record.
func Report(ctx context.Context, opts *Options, description, location, emergencyType string, priority int) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	emergency, err := client.ReportEmergency(ctx, description, location, emergencyType, priority)
	if err != nil {
		return err
	}

	return printJSON(emergency)
}

// Assign dispatches the responder batch to the emergency.
func Assign(ctx context.Context, opts *Options, emergencyID uint64, responderIDs []string) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	emergency, err := client.AssignResponders(ctx, emergencyID, responderIDs)
	if err != nil {
		return err
	}

	return printJSON(emergency)
}

// Allocate draws resource units for the emergency.
func Allocate(ctx context.Context, opts *Options, emergencyID, resourceID, quantity uint64) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	result, err := client.AllocateResources(ctx, emergencyID, resourceID, quantity)
	if err != nil {
		return err
	}

	return printJSON(result)
}

// UpdateStatus moves the emergency to the given status.
func UpdateStatus(ctx context.Context, opts *Options, emergencyID uint64, status string) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	emergency, err := client.UpdateEmergencyStatus(ctx, emergencyID, status)
	if err != nil {
		return err
	}

	return printJSON(emergency)
}

// Register creates a responder record. The identity defaults to the detected
// username@hostname so field units can self-describe.
func Register(ctx context.Context, opts *Options, id, name, responderType, location string) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	if id == "" {
		id, err = common.DetectIdentity()
		if err != nil {
			return err
		}
	}

	responder, err := client.RegisterResponder(ctx, id, name, responderType, location)
	if err != nil {
		return err
	}

	return printJSON(responder)
}

// AddResource registers a new resource pool.
func AddResource(ctx context.Context, opts *Options, name string, quantity uint64, location string) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	resource, err := client.AddResource(ctx, name, quantity, location)
	if err != nil {
		return err
	}

	return printJSON(resource)
}

// Authorize grants the identity coordination rights.
func Authorize(ctx context.Context, opts *Options, identity string) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	if err := client.AuthorizePersonnel(ctx, identity); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Personnel authorized", "identity", identity)

	return nil
}

// ShowEmergency prints the emergency record with its assigned responders.
func ShowEmergency(ctx context.Context, opts *Options, id uint64) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	emergency, err := client.Emergency(ctx, id)
	if err != nil {
		return err
	}

	return printJSON(emergency)
}

// ShowAssignedResponders prints the responder identities assigned to the
// emergency.
func ShowAssignedResponders(ctx context.Context, opts *Options, id uint64) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	responders, err := client.AssignedResponders(ctx, id)
	if err != nil {
		return err
	}

	return printJSON(responders)
}

// ShowResponder prints the responder record for the identity.
func ShowResponder(ctx context.Context, opts *Options, identity string) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	responder, err := client.Responder(ctx, identity)
	if err != nil {
		return err
	}

	return printJSON(responder)
}

// ShowResource prints the resource record.
func ShowResource(ctx context.Context, opts *Options, id uint64) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	resource, err := client.Resource(ctx, id)
	if err != nil {
		return err
	}

	return printJSON(resource)
}

// Events prints the most recent notifications, up to limit.
func Events(ctx context.Context, opts *Options, limit int) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	eventList, err := client.Events(ctx, limit)
	if err != nil {
		return err
	}

	return printJSON(eventList)
}
