package quaestor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/assemble"
	"github.com/input-output-hk/quaestor/src/application/normalize"
	"github.com/input-output-hk/quaestor/src/application/service"
	"github.com/input-output-hk/quaestor/src/application/synthesize"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

// PreviewCmd renders the test artifacts of a local specification without recording anything.
type PreviewCmd struct {
	File       string   `arg:"positional,required" help:"OpenAPI document to preview"`
	SpecRef    string   `arg:"--spec-ref" help:"spec_ref to name suites after, defaults to the file name"`
	Frameworks []string `arg:"--framework,separate" help:"frameworks to render, defaults to the configured ones"`
	Operations []string `arg:"--operation,separate" help:"restrict to these operations"`
	Config     string   `arg:"--config,env:QUAESTOR_CONFIG" help:"YAML file with the pipeline policy"`
	Quiet      bool     `arg:"--quiet" help:"only print the summary table"`

	Output io.Writer `arg:"-"`
}

func (cmd *PreviewCmd) Run(logger *zerolog.Logger) error {
	out := cmd.Output
	if out == nil {
		out = os.Stdout
	}

	pipelineConfig, err := config.LoadPipelineConfig(cmd.Config)
	if err != nil {
		return errors.WithMessage(err, "Invalid pipeline configuration")
	}
	frameworks := cmd.Frameworks
	if len(frameworks) == 0 {
		frameworks = pipelineConfig.Frameworks
	}

	raw, err := os.ReadFile(cmd.File)
	if err != nil {
		return errors.WithMessagef(err, "Could not read %q", cmd.File)
	}

	result, err := normalize.New(pipelineConfig.Normalize).Normalize(raw)
	if err != nil {
		return err
	}
	spec := result.Specification
	spec.SpecRef = cmd.SpecRef
	if spec.SpecRef == "" {
		spec.SpecRef = strings.TrimSuffix(filepath.Base(cmd.File), filepath.Ext(cmd.File))
	}
	spec.Revision = 1

	for _, finding := range result.Findings {
		logger.Warn().Str("operation", finding.OperationID).Str("kind", string(finding.Kind)).Msg(finding.Message)
	}

	templateService, err := service.NewTemplateService(pipelineConfig.TemplateDir, logger)
	if err != nil {
		return err
	}
	synthesizer := synthesize.New(pipelineConfig.Synthesis)
	assembler := assemble.New(templateService.Registry(), assemble.AuthContext{})

	event := domain.ChangeEvent{OperationSet: cmd.Operations}

	summary := table.NewWriter()
	summary.SetOutputMirror(out)
	summary.AppendHeader(table.Row{"Operation", "Framework", "Suite", "Variants", "Status", "Flags"})

	for _, op := range spec.Operations {
		if !event.Includes(op) {
			continue
		}
		op := op

		data, err := synthesizer.Synthesize(&spec, op, synthesize.Hint{})
		if err != nil {
			summary.AppendRow(table.Row{op.ID, "", "", "", "skipped", err.Error()})
			continue
		}

		for _, framework := range frameworks {
			artifact, err := assembler.Assemble(&spec, &op, &data, framework, assemble.Revision{Version: 1})
			if err != nil {
				summary.AppendRow(table.Row{op.ID, framework, "", len(data.InvalidVariants), "skipped", err.Error()})
				continue
			}

			if !cmd.Quiet {
				fmt.Fprintf(out, "# %s (%s)\n%s\n", op.ID, framework, artifact.Content)
			}

			flags := make([]string, len(artifact.QualityFlags))
			for i, flag := range artifact.QualityFlags {
				flags[i] = string(flag)
			}
			summary.AppendRow(table.Row{op.ID, framework, artifact.SuiteID, len(data.InvalidVariants), data.ValidStatus, strings.Join(flags, ", ")})
		}
	}

	summary.AppendFooter(table.Row{spec.SpecRef, "", "", "", "", fmt.Sprintf("quality %.2f", spec.Quality)})
	summary.Render()

	return nil
}
