package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"

	"github.com/tonylturner/zbncp/internal/config"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
)

// WizardAnswers holds what the init wizard asks for. Numeric answers stay
// strings so the form can edit them in place.
type WizardAnswers struct {
	Scenario    string
	Channel     string
	PanID       string // hex, empty for the scenario default
	EchoLimit   string
	NwkKey      string
	ByteOrder   string
	CaptureFile string
	MetricsCSV  string
	TUI         bool
}

// WizardOptions controls `zbncp init`.
type WizardOptions struct {
	Output string
	Copy   bool
	Out    io.Writer
}

// DefaultAnswers prefills the wizard from the default run config.
func DefaultAnswers() WizardAnswers {
	cfg := config.CreateDefaultRunConfig()
	return WizardAnswers{
		Scenario:  cfg.Scenario,
		Channel:   strconv.Itoa(maskChannel(cfg.Network.ChannelMask)),
		EchoLimit: strconv.Itoa(cfg.Network.EchoLimit),
		NwkKey:    cfg.Network.NwkKey,
		ByteOrder: cfg.Protocol.ByteOrder,
	}
}

func maskChannel(mask uint32) int {
	for ch := 0; ch < 32; ch++ {
		if mask&(1<<ch) != 0 {
			return ch
		}
	}
	return 0
}

func validateChannel(s string) error {
	ch, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || ch < 11 || ch > 26 {
		return fmt.Errorf("channel must be 11-26")
	}
	return nil
}

func validatePanID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16); err != nil {
		return fmt.Errorf("pan id must be up to 4 hex digits")
	}
	return nil
}

func validateEchoLimit(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("echo limit must be a non-negative number")
	}
	return nil
}

func validateNwkKey(s string) error {
	b, err := config.DecodeHex(s)
	if err != nil || len(b) != len(protocol.Key{}) {
		return fmt.Errorf("network key must be 16 hex bytes")
	}
	return nil
}

func buildWizardForm(a *WizardAnswers) *huh.Form {
	var scenarioOptions []huh.Option[string]
	meta := config.ScenarioMetaMap()
	for _, name := range config.ScenarioNames() {
		scenarioOptions = append(scenarioOptions, huh.NewOption(fmt.Sprintf("%s: %s", name, meta[name].Description), name))
	}

	scenarioGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Scenario").
			Description("Device role and exchange to run.").
			Key("scenario").
			Options(scenarioOptions...).
			Value(&a.Scenario),
	)

	networkGroup := huh.NewGroup(
		huh.NewInput().
			Title("Channel").
			Description("2.4 GHz channel on page 0 (11-26).").
			Key("channel").
			Validate(validateChannel).
			Value(&a.Channel),
		huh.NewInput().
			Title("PAN id (optional)").
			Description("Hex, e.g. 0x1AAA. Empty keeps the scenario default.").
			Key("pan_id").
			Validate(validatePanID).
			Value(&a.PanID),
		huh.NewInput().
			Title("Echo limit").
			Description("APS data packets to echo (0 for none).").
			Key("echo_limit").
			Validate(validateEchoLimit).
			Value(&a.EchoLimit),
		huh.NewInput().
			Title("Network key").
			Description("16 bytes hex, used by the coordinator.").
			Key("nwk_key").
			Validate(validateNwkKey).
			Value(&a.NwkKey),
	)

	outputGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Byte order").
			Key("byte_order").
			Options(
				huh.NewOption("Little endian", "little"),
				huh.NewOption("Big endian", "big"),
			).
			Value(&a.ByteOrder),
		huh.NewInput().
			Title("Capture file (optional)").
			Description("pcap file recording every frame.").
			Key("capture").
			Value(&a.CaptureFile),
		huh.NewInput().
			Title("Metrics CSV (optional)").
			Key("metrics_csv").
			Value(&a.MetricsCSV),
		huh.NewConfirm().
			Title("Live view").
			Description("Add --tui to the generated command.").
			Key("tui").
			Value(&a.TUI),
	)

	return huh.NewForm(scenarioGroup, networkGroup, outputGroup)
}

// Config turns the answers into a validated run config.
func (a WizardAnswers) Config() (*config.RunConfig, error) {
	cfg := config.CreateDefaultRunConfig()
	cfg.Scenario = strings.TrimSpace(a.Scenario)
	cfg.Network.Role, cfg.Network.PanID, cfg.Network.EchoLimit = "", 0, 0
	cfg.TimeoutSec = 0
	config.EnrichForScenario(cfg, cfg.Scenario)

	if err := validateChannel(a.Channel); err != nil {
		return nil, err
	}
	ch, _ := strconv.Atoi(strings.TrimSpace(a.Channel))
	cfg.Network.ChannelMask = 1 << ch

	if err := validatePanID(a.PanID); err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(a.PanID); s != "" {
		pan, _ := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
		cfg.Network.PanID = uint16(pan)
	}

	if strings.TrimSpace(a.EchoLimit) != "" {
		if err := validateEchoLimit(a.EchoLimit); err != nil {
			return nil, err
		}
		cfg.Network.EchoLimit, _ = strconv.Atoi(strings.TrimSpace(a.EchoLimit))
	}
	if a.NwkKey != "" {
		cfg.Network.NwkKey = strings.TrimSpace(a.NwkKey)
	}
	if a.ByteOrder != "" {
		cfg.Protocol.ByteOrder = a.ByteOrder
	}
	cfg.Output.CaptureFile = strings.TrimSpace(a.CaptureFile)
	cfg.Output.MetricsCSV = strings.TrimSpace(a.MetricsCSV)

	if err := config.ValidateRunConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunWizard asks for a run config, writes it and prints the matching run
// command, copying it to the clipboard when asked.
func RunWizard(opts WizardOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Output == "" {
		opts.Output = "zbncp_run.yaml"
	}

	answers := DefaultAnswers()
	if err := buildWizardForm(&answers).Run(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	return finishWizard(opts, answers, out)
}

func finishWizard(opts WizardOptions, answers WizardAnswers, out io.Writer) error {
	cfg, err := answers.Config()
	if err != nil {
		return err
	}
	if err := config.WriteRunConfig(opts.Output, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (scenario %s, role %s)\n", opts.Output, cfg.Scenario, cfg.Network.Role)

	command := BuildRunCommand(opts.Output, answers).String()
	fmt.Fprintf(out, "Run it with:\n  %s\n", command)
	if opts.Copy {
		if err := clipboard.WriteAll(command); err != nil {
			fmt.Fprintf(out, "Copy failed: %v\n", err)
		} else {
			fmt.Fprintln(out, "Command copied to clipboard")
		}
	}
	return nil
}
