package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Show the live run's identity and tuning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return httpGet(cmd, endpoint(baseURL, "/admin/v1/observer/bootstrap", nil))
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://127.0.0.1:8080", "server base url")
	return cmd
}

func newKnowledgeCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "knowledge <robot-id>",
		Short: "Dump one live robot's explored mask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return httpGet(cmd, endpoint(baseURL, "/admin/v1/observer/knowledge", url.Values{"id": {args[0]}}))
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://127.0.0.1:8080", "server base url")
	return cmd
}

func endpoint(base, path string, q url.Values) string {
	u := strings.TrimRight(strings.TrimSpace(base), "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func httpGet(cmd *cobra.Command, u string) error {
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s: %s", u, resp.Status)
	}
	return nil
}
