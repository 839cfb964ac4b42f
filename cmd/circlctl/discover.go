package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"circl/config"
	"circl/models"
	"circl/services/discovery"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	domainFlag  string
	answersFile string
	setFlags    []string
	dryRun      bool
	outputJSON  bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Fetch resources for a set of quiz answers",
	Long: `Builds the quiz answers for --domain from a YAML file and --set overrides,
then fetches matching resources from the discovery API.`,
	Example: `  circlctl discover --domain investor --answers investor.yaml
  circlctl discover --domain legal --set legalNeeds=trademark --set locationPref=Austin --dry-run`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVarP(&domainFlag, "domain", "d", "", "quiz domain (see 'circlctl domains')")
	discoverCmd.Flags().StringVarP(&answersFile, "answers", "f", "", "YAML file of quiz answers")
	discoverCmd.Flags().StringArrayVar(&setFlags, "set", nil, "answer override as key=value (repeatable)")
	discoverCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the request URL without fetching")
	discoverCmd.Flags().BoolVar(&outputJSON, "json", false, "print the full result as JSON")
	_ = discoverCmd.MarkFlagRequired("domain")
}

// loadAnswers merges the YAML file and key=value overrides and decodes them for domain.
func loadAnswers(domain, file string, sets []string) (models.QuizAnswers, error) {
	fields := map[string]interface{}{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if fields == nil {
			fields = map[string]interface{}{}
		}
	}
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		var parsed interface{}
		if err := yaml.Unmarshal([]byte(raw), &parsed); err == nil {
			if b, isBool := parsed.(bool); isBool {
				fields[key] = b
				continue
			}
		}
		fields[key] = raw
	}
	// Answers are strings or booleans; numbers typed into YAML are taken as text.
	for k, v := range fields {
		switch v.(type) {
		case string, bool:
		default:
			fields[k] = fmt.Sprint(v)
		}
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return discovery.DecodeAnswers(domain, body)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	answers, err := loadAnswers(domainFlag, answersFile, setFlags)
	if err != nil {
		return err
	}

	fetcher := discovery.NewHTTPFetcher(discovery.FetcherConfig{
		BaseURL: baseURL,
		Timeout: timeout,
		Paths:   config.Config{DiscoveryPaths: paths}.PathOverrides(),
	}, zap.NewNop())

	out := cmd.OutOrStdout()
	if dryRun {
		u, err := fetcher.RequestURL(answers)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, u)
		return nil
	}

	res := fetcher.Fetch(cmd.Context(), answers)
	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "keyword:  %s\nlocation: %s\n", res.Keyword, res.Location)
		for i, r := range res.Resources {
			line := fmt.Sprintf("%2d. %s", i+1, r.DisplayName.Text)
			if r.Rating != nil {
				line += fmt.Sprintf(" (%.1f)", *r.Rating)
			}
			if r.FormattedAddress != "" {
				line += " - " + r.FormattedAddress
			}
			fmt.Fprintln(out, line)
		}
	}
	if !res.OK() {
		return res.Err
	}
	return nil
}
