package task

import (
	"context"
	"slices"

	"github.com/chen893/radar"
)

// QuickSave extracts the page behind tab and stores it as a pending
// extraction without calling the model. The stored text is truncated like
// any other extraction and the same capacity gate applies.
func (o *Orchestrator) QuickSave(ctx context.Context, tab radar.Tab) (*radar.Extraction, error) {
	if d := o.filter().IsAllowed(tab.URL); !d.Allowed {
		return nil, radar.Errorf(radar.EFORBIDDEN, "%s: %s", tab.URL, d.Reason)
	}

	result, err := o.extract(ctx, tab)
	if err != nil {
		return nil, err
	}
	ex := radar.NewExtraction(tab, result, radar.AnalysisPending)

	o.storageMu.Lock()
	defer o.storageMu.Unlock()
	if _, err := o.checkCapacity(ctx, extractionSize(ex)); err != nil {
		return nil, err
	}
	if err := o.Extractions.CreateExtraction(ctx, ex); err != nil {
		return nil, err
	}

	o.logger().Info("page saved for later analysis", "extraction", ex.ID, "url", ex.URL, "truncated", ex.Truncated)
	return ex, nil
}

// SaveDemands stores the candidates a user selected from the analysis of
// an extraction and adds them to its saved count.
func (o *Orchestrator) SaveDemands(ctx context.Context, extractionID string, candidates []radar.DemandCandidate) ([]*radar.Demand, error) {
	if len(candidates) == 0 {
		return nil, radar.Errorf(radar.EINVALID, "no demands selected")
	}
	ex, err := o.Extractions.FindExtractionByID(ctx, extractionID)
	if err != nil {
		return nil, err
	}

	demands := make([]*radar.Demand, 0, len(candidates))
	var size int64
	for i := range candidates {
		if err := candidates[i].Validate(); err != nil {
			return nil, radar.Errorf(radar.EINVALID, "demand %d: %s", i, radar.ErrorMessage(err))
		}
		d := radar.NewDemand(ex, candidates[i])
		d.ID = candidates[i].ID
		size += demandSize(d)
		demands = append(demands, d)
	}

	o.storageMu.Lock()
	defer o.storageMu.Unlock()
	if _, err := o.checkCapacity(ctx, size); err != nil {
		return nil, err
	}
	if err := o.Demands.CreateDemands(ctx, demands); err != nil {
		return nil, err
	}

	saved := ex.SavedDemandCount + len(demands)
	if _, err := o.Extractions.UpdateExtraction(ctx, ex.ID, radar.ExtractionUpdate{SavedDemandCount: &saved}); err != nil {
		o.rollbackDemands(ctx, demands)
		return nil, err
	}
	return demands, nil
}

// TestConnection checks that the provider accepts cfg. A nil cfg tests the
// stored configuration. The check gives up after ConnectionTestTimeout.
func (o *Orchestrator) TestConnection(ctx context.Context, cfg *radar.LLMConfig) error {
	if cfg == nil {
		stored, _, err := o.storedConfig(ctx)
		if err != nil {
			return err
		}
		cfg = &stored.LLM
	}

	a, err := o.newAnalyzer(*cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectionTestTimeout)
	defer cancel()
	return a.TestConnection(ctx)
}

func (o *Orchestrator) storedConfig(ctx context.Context) (*radar.Config, bool, error) {
	if o.Config == nil {
		return &radar.Config{}, false, nil
	}
	cfg, err := o.Config.Config(ctx)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// StorageUsage reports stored bytes against the soft limit.
func (o *Orchestrator) StorageUsage(ctx context.Context) (radar.StorageUsage, error) {
	used, err := o.Storage.UsedBytes(ctx)
	if err != nil {
		return radar.StorageUsage{}, err
	}
	return o.policy().Usage(used), nil
}

// ClearData removes every extraction and demand.
func (o *Orchestrator) ClearData(ctx context.Context) error {
	o.storageMu.Lock()
	defer o.storageMu.Unlock()
	return o.Storage.Clear(ctx)
}

// PageInfo reports how rawURL is treated and broadcasts the answer.
func (o *Orchestrator) PageInfo(ctx context.Context, rawURL string) radar.PageInfo {
	f := o.filter()
	d := f.IsAllowed(rawURL)
	info := radar.PageInfo{
		URL:                rawURL,
		Platform:           radar.PlatformGeneric,
		Allowed:            d.Allowed,
		Reason:             d.Reason,
		KnownPlatform:      f.IsKnownPlatform(rawURL),
		NeedsAuthorization: d.Reason == radar.ReasonNeedsAuthorization,
	}
	if o.Registry != nil {
		info.Platform = o.Registry.DetectPlatform(rawURL)
	}
	o.broadcast(ctx, radar.Event{Type: radar.EventPageInfoUpdated, Data: info})
	return info
}

// Authorize grants analysis of every page on rawURL's host and keeps the
// grant in the stored configuration.
func (o *Orchestrator) Authorize(ctx context.Context, rawURL string) (radar.PageInfo, error) {
	pattern := radar.AuthorizationPattern(rawURL)
	if err := o.updateWhitelist(ctx, func(list []string) []string {
		if slices.Contains(list, pattern) {
			return list
		}
		return append(list, pattern)
	}); err != nil {
		return radar.PageInfo{}, err
	}
	o.filter().Grant(pattern)
	return o.PageInfo(ctx, rawURL), nil
}

// Revoke withdraws a grant made by Authorize.
func (o *Orchestrator) Revoke(ctx context.Context, rawURL string) (radar.PageInfo, error) {
	pattern := radar.AuthorizationPattern(rawURL)
	if err := o.updateWhitelist(ctx, func(list []string) []string {
		return slices.DeleteFunc(list, func(p string) bool { return p == pattern })
	}); err != nil {
		return radar.PageInfo{}, err
	}
	o.filter().Revoke(pattern)
	return o.PageInfo(ctx, rawURL), nil
}

func (o *Orchestrator) updateWhitelist(ctx context.Context, fn func([]string) []string) error {
	cfg, ok, err := o.storedConfig(ctx)
	if err != nil || !ok {
		return err
	}
	cfg.CustomWhitelist = fn(cfg.CustomWhitelist)
	return o.Config.UpdateConfig(ctx, cfg)
}

// UpdateConfig stores cfg and applies its site lists to the filter.
func (o *Orchestrator) UpdateConfig(ctx context.Context, cfg *radar.Config) error {
	if o.Config == nil {
		return radar.Errorf(radar.EINTERNAL, "no configuration store")
	}
	if err := o.Config.UpdateConfig(ctx, cfg); err != nil {
		return err
	}
	o.ApplyConfig(cfg)
	return nil
}

// ApplyConfig replaces the filter's custom whitelist and user blacklist
// with the lists in cfg. Default patterns are never removed.
func (o *Orchestrator) ApplyConfig(cfg *radar.Config) {
	f := o.filter()

	for _, p := range f.Patterns().CustomWhitelist {
		if !slices.Contains(cfg.CustomWhitelist, p) {
			f.Revoke(p)
		}
	}
	for _, p := range cfg.CustomWhitelist {
		f.Grant(p)
	}

	o.filterMu.Lock()
	defer o.filterMu.Unlock()
	for _, p := range o.appliedBlacklist {
		if !slices.Contains(radar.DefaultBlacklist, p) && !slices.Contains(cfg.Blacklist, p) {
			f.RemoveBlacklist(p)
		}
	}
	for _, p := range cfg.Blacklist {
		f.AddBlacklist(p)
	}
	o.appliedBlacklist = slices.Clone(cfg.Blacklist)
}
