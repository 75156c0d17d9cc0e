package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/eda"
	"github.com/cdmx-insight/incident-etl/internal/ruleset"
)

var (
	validateRuleset string
	validateWeather string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a ruleset and optional weather source",
	Long: `Checks that a classification ruleset compiles — required keys present,
every order entry has patterns and a macro mapping, all patterns valid — and,
when given, that a weather source carries the required columns. Exits
non-zero on the first problem.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateRuleset == "" && validateWeather == "" {
			return eris.New("validate: nothing to validate, pass --ruleset and/or --weather")
		}

		if validateRuleset != "" {
			rules, err := ruleset.Load(validateRuleset)
			if err != nil {
				return err
			}
			zap.L().Info("validate: ruleset ok",
				zap.String("path", validateRuleset),
				zap.Int("groups", len(rules.Groups())),
			)
		}

		if validateWeather != "" {
			days, err := eda.LoadWeather(validateWeather)
			if err != nil {
				return err
			}
			zap.L().Info("validate: weather source ok",
				zap.String("path", validateWeather),
				zap.Int("days", len(days)),
			)
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateRuleset, "ruleset", "", "classification ruleset YAML path")
	validateCmd.Flags().StringVar(&validateWeather, "weather", "", "weather source path (CSV or XLSX)")
	rootCmd.AddCommand(validateCmd)
}
