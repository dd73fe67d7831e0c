package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/emergency-dispatch/internal/config"
	"github.com/oshokin/emergency-dispatch/internal/domain/dispatch"
	"github.com/oshokin/emergency-dispatch/internal/service/common"
	"github.com/oshokin/emergency-dispatch/internal/service/server"
)

const (
	integrationAdmin     = "admin@hq"
	integrationBootstrap = "integration-bootstrap"
)

// startServer starts the dispatch server with a temporary config and state
// file. Returns a stop function to shut the server down.
func startServer(t *testing.T, addr, statePath string) (stop func()) {
	t.Helper()

	// Create cancellable context for server lifecycle.
	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	// Create temporary configuration file.
	require.NoError(
		t,
		config.Save(cfgPath, &config.Config{
			ListenAddress:   addr,
			AdminIdentity:   integrationAdmin,
			JWTSecret:       "integration-jwt-secret",
			BootstrapSecret: integrationBootstrap,
			Timeout:         5 * time.Second,
		}),
	)

	// Start server in background goroutine.
	go func() {
		options := &server.Options{
			ConfigPath: cfgPath,
			StateFile:  statePath,
		}

		_ = server.Run(ctx, options)
	}()

	// Wait briefly for the server to start listening.
	time.Sleep(150 * time.Millisecond)

	return func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
	}
}

// TestHTTP_DispatchFlow starts the real server and walks the full dispatch
// lifecycle over the HTTP API with on-disk persistence.
func TestHTTP_DispatchFlow(t *testing.T) {
	t.Parallel()

	// Reserve a free port for the test server.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	statePath := filepath.Join(t.TempDir(), "state.json")

	stop := startServer(t, addr, statePath)
	defer stop()

	ctx := context.Background()

	client, err := common.NewClient("http://"+addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	// Obtain a token for the admin identity.
	_, err = client.Authenticate(ctx, integrationAdmin, integrationBootstrap)
	require.NoError(t, err)

	// Register two responder units and a resource pool.
	_, err = client.RegisterResponder(ctx, "unit-7", "Engine 7", "FIRE_DEPARTMENT", "Station 7")
	require.NoError(t, err)

	_, err = client.RegisterResponder(ctx, "medic-3", "Ambulance 3", "MEDICAL", "Central Hospital")
	require.NoError(t, err)

	resource, err := client.AddResource(ctx, "Water tank", 20, "Depot")
	require.NoError(t, err)

	// Report and work an emergency to resolution.
	emergency, err := client.ReportEmergency(ctx, "Apartment fire", "12 Main St", "FIRE", 4)
	require.NoError(t, err)
	require.Equal(t, dispatch.StatusReported, emergency.Status)

	emergency, err = client.AssignResponders(ctx, emergency.ID, []string{"unit-7", "medic-3"})
	require.NoError(t, err)
	require.Equal(t, dispatch.StatusAssigned, emergency.Status)

	allocation, err := client.AllocateResources(ctx, emergency.ID, resource.ID, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(5), allocation.Emergency.ResourcesAllocated)
	require.Equal(t, uint64(15), allocation.Resource.Quantity)

	// Status updates come from an assigned responder.
	responderClient, err := common.NewClient("http://"+addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	_, err = responderClient.Authenticate(ctx, "unit-7", integrationBootstrap)
	require.NoError(t, err)

	emergency, err = responderClient.UpdateEmergencyStatus(ctx, emergency.ID, "IN_PROGRESS")
	require.NoError(t, err)
	require.Equal(t, dispatch.StatusInProgress, emergency.Status)

	emergency, err = responderClient.UpdateEmergencyStatus(ctx, emergency.ID, "RESOLVED")
	require.NoError(t, err)
	require.Equal(t, dispatch.StatusResolved, emergency.Status)

	// Resolution frees the responders and credits their record.
	responder, err := client.Responder(ctx, "unit-7")
	require.NoError(t, err)
	require.True(t, responder.Available)
	require.Equal(t, uint64(1), responder.EmergenciesHandled)

	// The notification log captured the whole flow.
	eventList, err := client.Events(ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, eventList)

	// State was persisted to disk.
	_, err = os.Stat(statePath)
	require.NoError(t, err)
}

// TestHTTP_RejectsUnauthenticatedMutation verifies mutations require a token.
func TestHTTP_RejectsUnauthenticatedMutation(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	stop := startServer(t, addr, filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	client, err := common.NewClient("http://" + addr)
	require.NoError(t, err)

	_, err = client.ReportEmergency(context.Background(), "Apartment fire", "12 Main St", "FIRE", 4)
	require.Error(t, err)
}

// TestHTTP_StateFileFromSettings verifies that the state_file path from the
// settings YAML is honored when no command line override is given.
func TestHTTP_StateFileFromSettings(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	statePath := filepath.Join(t.TempDir(), "settings-state.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(
		t,
		config.Save(cfgPath, &config.Config{
			ListenAddress:   addr,
			StateFile:       statePath,
			AdminIdentity:   integrationAdmin,
			JWTSecret:       "integration-jwt-secret",
			BootstrapSecret: integrationBootstrap,
			Timeout:         5 * time.Second,
		}),
	)

	// No StateFile override, so the settings value must take effect.
	go func() {
		_ = server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	time.Sleep(150 * time.Millisecond)

	client, err := common.NewClient("http://"+addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background(), integrationAdmin, integrationBootstrap)
	require.NoError(t, err)

	emergency, err := client.ReportEmergency(context.Background(), "Gas leak", "7 Dock Rd", "FIRE", 3)
	require.NoError(t, err)
	require.Equal(t, uint64(1), emergency.ID)

	_, err = os.Stat(statePath)
	require.NoError(t, err)
}
