package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"packshot/internal/catalog"
	"packshot/internal/events"
	"packshot/internal/fanout"
	"packshot/internal/logging"
	"packshot/internal/naming"
	"packshot/internal/records"
	"packshot/internal/retailer"
	"packshot/internal/selection"
	"packshot/internal/services"
)

// Item statuses reported on the event stream.
const (
	itemStatusOK         = "ok"
	itemStatusPartial    = "partial"
	itemStatusFailed     = "failed"
	itemStatusRestricted = "restricted"
)

type tally struct {
	okItems      int
	partialItems int
	failedItems  int
	failed       []string
	restricted   []string
}

func (r *Runner) execute(ctx context.Context, runID string, items []records.Item, rejects []records.Reject, duplicates records.Duplicates, policies []retailer.Policy) {
	start := time.Now()
	totalRows := len(items) + len(rejects)
	retailerNames := make([]string, 0, len(policies))
	for _, policy := range policies {
		retailerNames = append(retailerNames, policy.Name)
	}

	logger := r.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("run started",
		logging.Int("items", totalRows),
		logging.String("retailers", fmt.Sprint(retailerNames)),
	)
	if err := r.notifier.NotifyRunStarted(ctx, runID, totalRows, retailerNames); err != nil {
		logger.Warn("run start notification failed", logging.Error(err))
	}
	r.reportDuplicates(runID, duplicates)

	var counts tally
	for _, reject := range rejects {
		r.rejectItem(runID, reject, policies, &counts)
	}

	asins, err := r.resolveASINs(ctx, runID, items, policies)
	if err != nil {
		r.failRun(ctx, runID, start, totalRows, duplicates, counts, err)
		return
	}

	// Cancellation is coarse: checked between rows only, so the row in
	// flight finishes its fetches and writes before the run winds down.
	workCtx := context.WithoutCancel(ctx)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		r.processItem(workCtx, runID, item, policies, asins[item.GTIN], &counts)
	}

	summary := r.buildSummary(runID, start, totalRows, duplicates, counts)
	state := classify(ctx, counts)
	summary.Status = string(state)
	r.finish(runID, state, summary)

	logger.Info("run finished",
		logging.String("state", string(state)),
		logging.Int("files_written", summary.FilesWritten),
		logging.Int("failed_items", counts.failedItems+counts.partialItems),
		logging.Duration("elapsed", time.Since(start)),
	)
	if err := r.notifier.NotifyRunCompleted(context.WithoutCancel(ctx), runID, string(state), summary.FilesWritten, counts.failedItems+counts.partialItems, time.Since(start)); err != nil {
		logger.Warn("run completion notification failed", logging.Error(err))
	}
}

// resolveASINs performs the up-front GTIN to ASIN resolution for every policy
// that saves under ASINs. A GTIN that resolves to nothing is not an error
// here; the item fails later with a per-item reason. A portal outage during
// resolution aborts the run, since nothing downstream can proceed for those
// retailers.
func (r *Runner) resolveASINs(ctx context.Context, runID string, items []records.Item, policies []retailer.Policy) (map[string][]string, error) {
	needed := false
	for _, policy := range policies {
		if policy.ResolvesASINs() {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	if r.resolver == nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "resolve", "an ASIN-keyed retailer was requested but no resolver is configured", nil)
	}

	r.setState(StateResolving)
	r.publishProgress(runID, r.Status().Progress)

	// The cancellation check sits between lookups; the lookup in flight
	// runs to completion on an uncancelled context.
	workCtx := context.WithoutCancel(ctx)
	asins := make(map[string][]string, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.GTIN == "" {
			continue
		}
		if _, done := asins[item.GTIN]; done {
			continue
		}
		resolved, err := r.resolver.ASINs(workCtx, item.GTIN)
		if err != nil {
			return nil, err
		}
		asins[item.GTIN] = resolved
	}
	return asins, nil
}

// processItem runs one input row through every selected retailer. The portal
// fetch happens once per row; selection and writes run per policy.
func (r *Runner) processItem(ctx context.Context, runID string, item records.Item, policies []retailer.Policy, asins []string, counts *tally) {
	logger := r.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldIdentifier, item.BMN),
	)

	r.setState(StateFetching)
	assets, fetchErr := r.source.Fetch(ctx, item.BMN)
	if fetchErr != nil {
		for _, policy := range policies {
			r.recordItemFailure(runID, item, policy, fetchErr, counts)
		}
		logger.Warn("portal fetch failed", logging.Error(fetchErr))
		return
	}

	for _, policy := range policies {
		r.processItemForPolicy(ctx, runID, item, policy, assets, asins, counts, logger)
	}
}

func (r *Runner) processItemForPolicy(ctx context.Context, runID string, item records.Item, policy retailer.Policy, assets []catalog.Asset, asins []string, counts *tally, logger *slog.Logger) {
	r.setState(StateSelecting)
	result := selection.Select(assets, policy)

	if len(result.Restricted) > 0 {
		counts.restricted = append(counts.restricted, item.BMN)
	}
	if len(result.Selected) == 0 {
		status := itemStatusFailed
		detail := "no eligible assets"
		if len(result.Restricted) > 0 {
			status = itemStatusRestricted
			detail = "all candidate assets are restricted"
		}
		counts.failedItems++
		counts.failed = append(counts.failed, item.BMN)
		r.publishItem(runID, item, policy, status, nil, detail)
		r.completeItem(runID, 0, 0, 1)
		return
	}
	for _, missing := range result.MissingTypes {
		logger.Warn("required asset type not found",
			logging.String(logging.FieldRetailer, policy.Name),
			logging.String(logging.FieldAssetType, missing),
		)
		r.publishLog(runID, "warn", fmt.Sprintf("%s %s: asset type %s not found", policy.Name, item.BMN, missing))
	}

	saveIDs, err := naming.SaveIDs(item, asins, policy)
	if err != nil {
		counts.failedItems++
		counts.failed = append(counts.failed, item.BMN)
		r.publishItem(runID, item, policy, itemStatusFailed, nil, err.Error())
		r.completeItem(runID, 0, 0, 1)
		return
	}

	r.setState(StateWriting)
	written, skipped, failures, files := r.writePicks(ctx, result.Selected, saveIDs, policy, logger)

	status := itemStatusOK
	detail := ""
	switch {
	case failures > 0 && written+skipped > 0:
		status = itemStatusPartial
		detail = fmt.Sprintf("%d of %d assets failed", failures, len(result.Selected))
	case failures > 0:
		status = itemStatusFailed
		detail = "all asset writes failed"
	case len(result.MissingTypes) > 0:
		status = itemStatusPartial
		detail = "asset types not found: " + strings.Join(result.MissingTypes, ", ")
	}
	switch status {
	case itemStatusOK:
		counts.okItems++
	case itemStatusPartial:
		counts.partialItems++
		counts.failed = append(counts.failed, item.BMN)
	default:
		counts.failedItems++
		counts.failed = append(counts.failed, item.BMN)
	}
	r.publishItem(runID, item, policy, status, files, detail)
	r.completeItem(runID, written, skipped, failures)
}

// writePicks downloads and fans out the selected assets with bounded
// parallelism. Each pick is independent; one failed download never blocks the
// rest of the item.
func (r *Runner) writePicks(ctx context.Context, picks []selection.Pick, saveIDs []string, policy retailer.Policy, logger *slog.Logger) (written, skipped, failures int, files []string) {
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.cfg.Workflow.FetchConcurrency)

	for _, pick := range picks {
		pick := pick
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			target, err := naming.Resolve(pick, saveIDs, policy)
			if err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				logger.Warn("filename resolution failed",
					logging.String(logging.FieldRetailer, policy.Name),
					logging.String(logging.FieldAssetType, pick.Asset.Type),
					logging.Error(err),
				)
				return nil
			}

			content, err := r.source.Download(groupCtx, pick.Asset)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				mu.Lock()
				failures++
				mu.Unlock()
				logger.Warn("asset download failed",
					logging.String(logging.FieldRetailer, policy.Name),
					logging.String(logging.FieldAssetType, pick.Asset.Type),
					logging.Error(err),
				)
				return nil
			}

			report := fanout.Write(content, target.Folders, target.Filename)
			mu.Lock()
			written += report.Written()
			for _, result := range report.Results {
				switch result.Outcome {
				case fanout.OutcomeAlreadyPresent:
					skipped++
				case fanout.OutcomeConflict, fanout.OutcomeIOError:
					failures++
				}
			}
			files = append(files, target.Filename)
			mu.Unlock()
			for _, failure := range report.Failed() {
				logger.Warn("fan-out write failed",
					logging.String(logging.FieldRetailer, policy.Name),
					logging.String("path", failure.Path),
					logging.Error(failure.Err),
				)
			}
			return nil
		})
	}
	_ = group.Wait()

	sort.Strings(files)
	return written, skipped, failures, files
}

// rejectItem surfaces a row dropped during normalization as a failed item for
// every selected retailer. The rest of the sheet keeps running.
func (r *Runner) rejectItem(runID string, reject records.Reject, policies []retailer.Policy, counts *tally) {
	identifier := reject.Item.BMN
	if identifier == "" {
		identifier = reject.Item.GTIN
	}
	if identifier == "" {
		identifier = fmt.Sprintf("row %d", reject.Item.Row)
	}
	counts.failedItems++
	counts.failed = append(counts.failed, identifier)
	r.publishLog(runID, "warn", "input row rejected: "+reject.Err.Error())
	for _, policy := range policies {
		r.publishItem(runID, reject.Item, policy, itemStatusFailed, nil, reject.Err.Error())
		r.completeItem(runID, 0, 0, 1)
	}
}

func (r *Runner) recordItemFailure(runID string, item records.Item, policy retailer.Policy, err error, counts *tally) {
	counts.failedItems++
	counts.failed = append(counts.failed, item.BMN)
	detail := "portal fetch failed"
	if errors.Is(err, services.ErrNotFound) {
		detail = "identifier not in portal"
	}
	r.publishItem(runID, item, policy, itemStatusFailed, nil, detail)
	r.completeItem(runID, 0, 0, 1)
}

func (r *Runner) publishItem(runID string, item records.Item, policy retailer.Policy, status string, files []string, detail string) {
	r.hub.Publish(events.Event{
		Kind:  events.KindItem,
		RunID: runID,
		Item: &events.Item{
			Identifier: item.BMN,
			Retailer:   policy.Name,
			Status:     status,
			Files:      files,
			Detail:     detail,
		},
	})
}

func (r *Runner) completeItem(runID string, written, skipped, failures int) {
	progress := r.updateProgress(func(p *events.Progress) {
		p.CompletedItems++
		p.FilesWritten += written
		p.FilesSkipped += skipped
		p.Failures += failures
	})
	r.publishProgress(runID, progress)
}

func (r *Runner) reportDuplicates(runID string, duplicates records.Duplicates) {
	if duplicates.Empty() {
		return
	}
	for _, bmn := range duplicates.BMNs {
		r.publishLog(runID, "warn", "duplicate BMN dropped: "+bmn)
	}
	for _, gtin := range duplicates.GTINs {
		r.publishLog(runID, "warn", "duplicate GTIN dropped: "+gtin)
	}
	for _, article := range duplicates.ArticleIDs {
		r.publishLog(runID, "warn", "duplicate article ID dropped: "+article)
	}
}

func (r *Runner) failRun(ctx context.Context, runID string, start time.Time, totalRows int, duplicates records.Duplicates, counts tally, err error) {
	state := StateFailed
	if ctx.Err() != nil {
		state = StateCancelled
	} else {
		r.logger.Error("run aborted", logging.String(logging.FieldRunID, runID), logging.Error(err))
		r.publishLog(runID, "error", "run aborted: "+err.Error())
		if notifyErr := r.notifier.NotifyError(context.WithoutCancel(ctx), err, "run "+runID); notifyErr != nil {
			r.logger.Warn("error notification failed", logging.Error(notifyErr))
		}
	}
	summary := r.buildSummary(runID, start, totalRows, duplicates, counts)
	summary.Status = string(state)
	r.finish(runID, state, summary)
}

func (r *Runner) buildSummary(runID string, start time.Time, totalRows int, duplicates records.Duplicates, counts tally) *events.Summary {
	progress := r.Status().Progress
	var duplicateRows []string
	duplicateRows = append(duplicateRows, duplicates.BMNs...)
	duplicateRows = append(duplicateRows, duplicates.GTINs...)
	duplicateRows = append(duplicateRows, duplicates.ArticleIDs...)
	return &events.Summary{
		RunID:          runID,
		TotalItems:     totalRows,
		FilesWritten:   progress.FilesWritten,
		FilesSkipped:   progress.FilesSkipped,
		Failed:         dedupe(counts.failed),
		Restricted:     dedupe(counts.restricted),
		DuplicateRows:  duplicateRows,
		ElapsedSeconds: time.Since(start).Seconds(),
	}
}

func classify(ctx context.Context, counts tally) State {
	switch {
	case ctx.Err() != nil:
		return StateCancelled
	case counts.okItems == 0 && counts.partialItems == 0 && counts.failedItems > 0:
		return StateFailed
	case counts.failedItems > 0 || counts.partialItems > 0:
		return StatePartialFailure
	default:
		return StateSucceeded
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	var out []string
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}
