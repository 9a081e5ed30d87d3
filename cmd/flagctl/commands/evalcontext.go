package commands

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyxflag/flagsdk/client"
)

// Context flags shared by evaluate and variant.
var (
	ctxUserID     string
	ctxSessionID  string
	ctxRemoteAddr string
	ctxEnviron    string
	ctxProperties map[string]string
)

// registerContextFlags attaches the shared context flags to cmd.
func registerContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ctxUserID, "user-id", "", "Context userId")
	cmd.Flags().StringVar(&ctxSessionID, "session-id", "", "Context sessionId")
	cmd.Flags().StringVar(&ctxRemoteAddr, "remote-addr", "", "Context remoteAddress (IP)")
	cmd.Flags().StringVar(&ctxEnviron, "environment", "", "Context environment")
	cmd.Flags().StringToStringVar(&ctxProperties, "property", nil, "Custom context property (key=value, repeatable)")
}

// buildContext turns the context flags into an evaluation context.
func buildContext(appName string) (*client.Context, error) {
	ctx := &client.Context{
		UserID:      ctxUserID,
		SessionID:   ctxSessionID,
		AppName:     appName,
		Environment: ctxEnviron,
		Properties:  ctxProperties,
	}
	if ctxRemoteAddr != "" {
		ip := net.ParseIP(ctxRemoteAddr)
		if ip == nil {
			return nil, fmt.Errorf("invalid --remote-addr %q", ctxRemoteAddr)
		}
		ctx.RemoteAddress = ip
	}
	return ctx, nil
}

// hydratedClient builds an SDK client and runs one synchronous poll so
// the evaluation below runs against the live catalogue.
func hydratedClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.PollOnce(ctx); err != nil {
		c.Stop()
		return nil, fmt.Errorf("failed to fetch catalogue: %w", err)
	}
	return c, nil
}
