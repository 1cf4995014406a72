package engine

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"sentra/internal/market"
)

// PlaybookThresholds are the numeric gates one playbook grades against.
// Zero values are filled from the playbook defaults, so an override file
// only needs to name the gates it changes.
type PlaybookThresholds struct {
	BiasMin         float64 `yaml:"biasMin"`
	TrendMin        float64 `yaml:"trendMin"`
	ABiasMin        float64 `yaml:"aBiasMin"`
	ATrendMin       float64 `yaml:"aTrendMin"`
	StrongBias      float64 `yaml:"strongBias"`
	StrongTrend     float64 `yaml:"strongTrend"`
	StrongOrderflow float64 `yaml:"strongOrderflow"`
	StrongQuality   float64 `yaml:"strongQuality"`
	OrderflowFloor  float64 `yaml:"orderflowFloor"`
	QualityFloor    float64 `yaml:"qualityFloor"`
	SentimentFloor  float64 `yaml:"sentimentFloor"`
	EventBlockHours float64 `yaml:"eventBlockHours"`
}

// Playbook pairs a stable identifier with the thresholds used to grade
// setups of its asset class.
type Playbook struct {
	ID         string
	Name       string
	Class      market.AssetClass
	Thresholds PlaybookThresholds
	FullGating bool
}

func defaultThresholds() PlaybookThresholds {
	return PlaybookThresholds{
		BiasMin:         70,
		TrendMin:        45,
		ABiasMin:        80,
		ATrendMin:       55,
		StrongBias:      90,
		StrongTrend:     65,
		StrongOrderflow: 55,
		StrongQuality:   70,
		OrderflowFloor:  30,
		QualityFloor:    40,
		SentimentFloor:  50,
		EventBlockHours: 24,
	}
}

var builtinPlaybooks = []Playbook{
	{ID: "gold-swing-v0.2", Name: "Gold Swing", Class: market.AssetClassCommodity, FullGating: true},
	{ID: "index-swing-v0.1", Name: "Index Swing", Class: market.AssetClassIndex},
	{ID: "crypto-swing-v0.1", Name: "Crypto Swing", Class: market.AssetClassCrypto},
	{ID: "fx-swing-v0.1", Name: "FX Swing", Class: market.AssetClassFX},
	{ID: "generic-swing-v0.1", Name: "Generic Swing", Class: market.AssetClassUnknown},
}

// PlaybookResolution names the chosen playbook and why it matched.
type PlaybookResolution struct {
	Playbook Playbook
	Reason   string
}

// PlaybookResolver maps an asset and trading profile onto one playbook.
// Swing-horizon profiles (including empty and position, which default to
// swing semantics) get asset-class playbooks; explicitly shorter horizons
// always land on the generic playbook.
type PlaybookResolver struct {
	playbooks map[string]Playbook
}

func NewPlaybookResolver(overrides map[string]PlaybookThresholds) *PlaybookResolver {
	books := make(map[string]Playbook, len(builtinPlaybooks))
	for _, pb := range builtinPlaybooks {
		pb.Thresholds = mergeThresholds(defaultThresholds(), overrides[pb.ID])
		books[pb.ID] = pb
	}
	return &PlaybookResolver{playbooks: books}
}

func mergeThresholds(base, over PlaybookThresholds) PlaybookThresholds {
	apply := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	apply(&base.BiasMin, over.BiasMin)
	apply(&base.TrendMin, over.TrendMin)
	apply(&base.ABiasMin, over.ABiasMin)
	apply(&base.ATrendMin, over.ATrendMin)
	apply(&base.StrongBias, over.StrongBias)
	apply(&base.StrongTrend, over.StrongTrend)
	apply(&base.StrongOrderflow, over.StrongOrderflow)
	apply(&base.StrongQuality, over.StrongQuality)
	apply(&base.OrderflowFloor, over.OrderflowFloor)
	apply(&base.QualityFloor, over.QualityFloor)
	apply(&base.SentimentFloor, over.SentimentFloor)
	apply(&base.EventBlockHours, over.EventBlockHours)
	return base
}

// LoadThresholdOverrides reads a YAML file mapping playbook id to partial
// threshold overrides. A missing path is not an error.
func LoadThresholdOverrides(path string) (map[string]PlaybookThresholds, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read playbook overrides: %w", err)
	}
	out := map[string]PlaybookThresholds{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse playbook overrides: %w", err)
	}
	return out, nil
}

var fxPairPattern = regexp.MustCompile(`^[A-Z]{6}$`)

var indexKeywords = []string{"GSPC", "NDX", "DJI", "GDAXI", "FTSE", "STOXX", "HSI", "NIKKEI", "IBEX"}

func (r *PlaybookResolver) Resolve(asset market.Asset, profile market.Profile) PlaybookResolution {
	if !swingLike(profile) {
		return PlaybookResolution{Playbook: r.playbooks["generic-swing-v0.1"], Reason: "non-swing profile"}
	}

	symbol := strings.ToUpper(strings.TrimSpace(asset.Symbol))
	name := strings.ToUpper(strings.TrimSpace(asset.Name))
	id := strings.ToUpper(strings.TrimSpace(asset.ID))

	switch {
	case isGold(id, symbol, name):
		return PlaybookResolution{Playbook: r.playbooks["gold-swing-v0.2"], Reason: "gold asset"}
	case isIndex(symbol, name):
		return PlaybookResolution{Playbook: r.playbooks["index-swing-v0.1"], Reason: "index asset"}
	case isCrypto(symbol):
		return PlaybookResolution{Playbook: r.playbooks["crypto-swing-v0.1"], Reason: "crypto asset"}
	case isFX(symbol):
		return PlaybookResolution{Playbook: r.playbooks["fx-swing-v0.1"], Reason: "fx asset"}
	default:
		return PlaybookResolution{Playbook: r.playbooks["generic-swing-v0.1"], Reason: "fallback generic"}
	}
}

// swingLike treats empty and position profiles as swing: the asset-class
// playbooks are written for multi-day holds, and an unspecified horizon
// defaults to that rather than to the generic catch-all.
func swingLike(profile market.Profile) bool {
	p := strings.ToLower(strings.TrimSpace(string(profile)))
	return p == "" || p == "position" || strings.Contains(p, "swing")
}

func isGold(id, symbol, name string) bool {
	return id == "GOLD" ||
		strings.HasPrefix(symbol, "GC") ||
		strings.Contains(symbol, "XAU") ||
		symbol == "GOLD" ||
		strings.Contains(name, "GOLD")
}

func isIndex(symbol, name string) bool {
	if strings.HasPrefix(symbol, "^") {
		return true
	}
	for _, kw := range indexKeywords {
		if strings.Contains(symbol, kw) {
			return true
		}
	}
	return strings.Contains(name, "INDEX")
}

func isCrypto(symbol string) bool {
	if strings.Contains(symbol, "=X") {
		return false
	}
	return strings.Contains(symbol, "-USD") ||
		strings.HasSuffix(symbol, "USDT") ||
		strings.HasSuffix(symbol, "USD")
}

func isFX(symbol string) bool {
	if strings.HasSuffix(symbol, "=X") {
		return true
	}
	return fxPairPattern.MatchString(symbol) && strings.Contains(symbol, "USD")
}
