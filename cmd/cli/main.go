package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/service"
)

var apiURL string

var rootCmd = &cobra.Command{
	Use:           "outreach",
	Short:         "Operate the contractor outreach service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("OUTREACH_API_URL", "http://localhost:8080"), "API base URL")
	rootCmd.AddCommand(loginCmd(), logoutCmd(), listCmd(), exportCmd(), importCmd(), searchCmd(), seedCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loginCmd() *cobra.Command {
	var req service.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session as a team member or Admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("APP_PASSWORD")
			}
			var resp struct {
				Session service.LoginResult `json:"session"`
			}
			if err := call(http.MethodPost, "/api/login", req, &resp); err != nil {
				return err
			}
			if err := saveToken(resp.Session.Token); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Printf("Logged in as %s until %s\n", resp.Session.Actor, resp.Session.ExpiresAt.Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Actor, "actor", "", "member name, or Admin")
	cmd.Flags().StringVar(&req.Password, "password", "", "shared app password (default $APP_PASSWORD)")
	cmd.Flags().StringVar(&req.AdminPasscode, "passcode", "", "admin passcode, required for Admin")
	cmd.MarkFlagRequired("actor")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.Remove(tokenFile()); err != nil && !os.IsNotExist(err) {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

type filterFlags struct {
	status, assignedTo, city, state, q string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "pipeline status")
	cmd.Flags().StringVar(&f.assignedTo, "assigned-to", "", `member id, or "self"`)
	cmd.Flags().StringVar(&f.city, "city", "", "city")
	cmd.Flags().StringVar(&f.state, "state", "", "state")
	cmd.Flags().StringVar(&f.q, "q", "", "text search on name and keywords")
}

func (f *filterFlags) values() url.Values {
	v := url.Values{}
	for key, val := range map[string]string{
		"status": f.status, "assignedTo": f.assignedTo, "city": f.city, "state": f.state, "q": f.q,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

func listCmd() *cobra.Command {
	var (
		filters     filterFlags
		page, limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contractors visible to the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := filters.values()
			params.Set("page", strconv.Itoa(page))
			params.Set("limit", strconv.Itoa(limit))

			var result service.ListResult
			if err := call(http.MethodGet, "/api/contractors?"+params.Encode(), nil, &result); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCITY\tSTATE\tSTATUS\tASSIGNED")
			for _, c := range result.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.City, c.State, c.Status, c.AssignedToID)
			}
			w.Flush()
			fmt.Printf("page %d, %d of %d\n", result.Page, len(result.Data), result.Total)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultPageSize, "page size")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		filters filterFlags
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download visible contractors as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := newRequest(http.MethodGet, "/api/export?"+filters.values().Encode(), nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var dst io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				dst = f
			}
			_, err = io.Copy(dst, resp.Body)
			return err
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <candidates.json>",
		Short: "Import a JSON array of candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var candidates []domain.Candidate
			if err := json.Unmarshal(raw, &candidates); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			return runImport(candidates)
		},
	}
}

func runImport(candidates []domain.Candidate) error {
	var result service.ImportResult
	if err := call(http.MethodPost, "/api/contractors", map[string]any{"contractors": candidates}, &result); err != nil {
		return err
	}
	fmt.Printf("Imported %d new, updated %d\n", result.Inserted, result.Updated)
	return nil
}

func searchCmd() *cobra.Command {
	var (
		keyword, category, location string
		radius, maxPages            int
		doImport                    bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the places provider, optionally importing the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"keyword":      keyword,
				"category":     category,
				"location":     map[string]string{"cityOrZip": location},
				"radiusMeters": radius,
				"maxPages":     maxPages,
			}
			var result struct {
				Results            []domain.Candidate `json:"results"`
				PagesFetched       int                `json:"pagesFetched"`
				Truncated          bool               `json:"truncated"`
				UpstreamStatus     string             `json:"upstreamStatus"`
				EnrichmentFailures int                `json:"enrichmentFailures"`
			}
			if err := call(http.MethodPost, "/api/places/search", body, &result); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCITY\tSTATE\tPHONE\tWEBSITE")
			for _, c := range result.Results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.City, c.State, c.Contact.Phone, c.Contact.Website)
			}
			w.Flush()
			fmt.Printf("%d results from %d pages", len(result.Results), result.PagesFetched)
			if result.Truncated {
				fmt.Printf(" (stopped early: %s)", result.UpstreamStatus)
			}
			if result.EnrichmentFailures > 0 {
				fmt.Printf(", %d detail lookups failed", result.EnrichmentFailures)
			}
			fmt.Println()

			if doImport && len(result.Results) > 0 {
				return runImport(result.Results)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyword, "keyword", "", "search keyword")
	cmd.Flags().StringVar(&category, "category", "", "service category")
	cmd.Flags().StringVar(&location, "location", "", "city or zip to search around")
	cmd.Flags().IntVar(&radius, "radius", 10000, "radius in meters")
	cmd.Flags().IntVar(&maxPages, "max-pages", 1, "result pages to fetch")
	cmd.Flags().BoolVar(&doImport, "import", false, "import the results")
	cmd.MarkFlagRequired("location")
	return cmd
}

func call(method, path string, body, dst any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}
	req, err := newRequest(method, path, payload)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, apiURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := loadToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return fmt.Errorf("%s: %s", resp.Status, body.Error)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".outreach", "token")
}

func saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile()), 0700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(bytes.TrimSpace(data))
}
