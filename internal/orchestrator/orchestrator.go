package orchestrator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/lbsproxaudit/discovery-engine/internal/attacker"
	"github.com/lbsproxaudit/discovery-engine/internal/bisection"
	"github.com/lbsproxaudit/discovery-engine/internal/config"
	"github.com/lbsproxaudit/discovery-engine/internal/coverage"
	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/kml"
	"github.com/lbsproxaudit/discovery-engine/internal/oracle"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
	"github.com/lbsproxaudit/discovery-engine/internal/projection"
	"github.com/lbsproxaudit/discovery-engine/internal/trilateration"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Engine ties the coverage/trilateration stages to the bisection loop
// (spec.md §4.10) and exposes the two engine-provided primitives spec.md
// §6 names: DUDPAttack and RUDPAttack.
type Engine struct {
	Config     config.EngineConfig
	Proj       projection.Projection
	Pool       *attacker.Pool
	Sink       Sink
	Log        *zap.Logger
	ServiceTag string
	Order      coverage.TraversalOrder
	Rnd        *rand.Rand
}

func New(cfg config.EngineConfig, proj projection.Projection, pool *attacker.Pool, log *zap.Logger, serviceTag string) *Engine {
	return &Engine{
		Config:     cfg,
		Proj:       proj,
		Pool:       pool,
		Log:        log,
		ServiceTag: serviceTag,
		Order:      coverage.ShuffleOrder{},
		Rnd:        rand.New(rand.NewSource(1)),
	}
}

// DUDPAttack runs the full DUDP pipeline: coverage finds an initial disk,
// bisection refines it (spec.md §4.10). gridStepM defaults to 20 when 0.
func (e *Engine) DUDPAttack(ctx context.Context, searchAreaKMLPath string, diskRadiiKM []float64, victim domain.AuditorUser, realVictim *domain.GeoPoint, gridStepM float64) (float64, error) {
	if gridStepM == 0 {
		gridStepM = 20
	}
	testID := uuid.NewString()

	searchArea, err := kml.Parse(searchAreaKMLPath, e.Proj)
	if err != nil {
		return 0, err
	}

	covResult, err := coverage.Run(ctx, searchArea, e.Proj, diskRadiiKM, e.Pool, victim, e.Order, e.Rnd, e.Config.OracleRetryLimit, e.Log)
	if err != nil {
		return 0, err
	}

	diskOracle := &oracle.DiskOracle{Host: e.Pool.Host, RadiusKM: covResult.RadiusKM}
	cfg := bisection.Config{
		GridStepM:    gridStepM,
		StopAreaM2:   e.Config.BinaryStopAreaM2,
		MinReduction: e.Config.MinReduction,
		RetryLimit:   e.Config.OracleRetryLimit,
		QueryLimit:   e.Config.QueryLimit,
	}

	result := bisection.Run(ctx, orb.MultiPolygon{covResult.Disk}, covResult.RadiusKM, e.Proj, cfg, e.Pool, diskOracle,
		covResult.FinalAttacker, victim, realVictim, e.Log)

	trace := e.buildTrace("DUDP", testID, result, realVictim)
	trace.Coverage = e.buildCoverageTrace(testID, covResult.Trace)
	if err := e.flush("DUDP", testID, trace); err != nil {
		e.Log.Warn("failed to flush trace", zap.Error(err))
	}
	if result.Fatal() {
		return result.ErrorKM, apperr.New(apperr.KindFatal, "BISECTION_ABORTED", result.TerminationReason)
	}

	return result.ErrorKM, nil
}

// RUDPAttack runs the full RUDP pipeline: trilateration narrows the
// candidate, bisection refines it (spec.md §4.10).
func (e *Engine) RUDPAttack(ctx context.Context, searchAreaKMLPath string, classes []domain.RoundingClass, victim domain.AuditorUser, realVictim *domain.GeoPoint, gridStepM float64) (float64, error) {
	if gridStepM == 0 {
		gridStepM = 20
	}
	if len(classes) == 0 {
		return 0, apperr.ErrNoRoundingClasses
	}
	testID := uuid.NewString()

	searchArea, err := kml.Parse(searchAreaKMLPath, e.Proj)
	if err != nil {
		return 0, err
	}

	triResult, err := trilateration.Run(ctx, searchArea, e.Proj, classes, e.Config.EC, e.Pool, victim, e.Config.OracleRetryLimit, e.Log)
	if err != nil {
		return 0, err
	}

	minRounding := minRoundingOf(classes)
	diskOracle := &oracle.DiskOracle{Host: e.Pool.Host, RadiusKM: minRounding}
	cfg := bisection.Config{
		GridStepM:    gridStepM,
		StopAreaM2:   e.Config.BinaryStopAreaM2,
		MinReduction: e.Config.MinReduction,
		RetryLimit:   e.Config.OracleRetryLimit,
		QueryLimit:   e.Config.QueryLimit,
	}

	result := bisection.Run(ctx, triResult.Candidate, minRounding, e.Proj, cfg, e.Pool, diskOracle,
		triResult.FinalAttacker, victim, realVictim, e.Log)

	trace := e.buildTrace("RUDP", testID, result, realVictim)
	if err := e.flush("RUDP", testID, trace); err != nil {
		e.Log.Warn("failed to flush trace", zap.Error(err))
	}
	if result.Fatal() {
		return result.ErrorKM, apperr.New(apperr.KindFatal, "BISECTION_ABORTED", result.TerminationReason)
	}

	return result.ErrorKM, nil
}

func minRoundingOf(classes []domain.RoundingClass) float64 {
	min := classes[0].RoundingKM
	for _, c := range classes[1:] {
		if c.RoundingKM < min {
			min = c.RoundingKM
		}
	}
	return min
}

// buildTrace converts a bisection.Result into the JSON trace shape spec.md
// §6 defines, emitting a KML snapshot per iteration.
func (e *Engine) buildTrace(stage, testID string, result bisection.Result, realVictim *domain.GeoPoint) *AttackTrace {
	trace := &AttackTrace{
		EstLocation: []float64{result.EstimateLat, result.EstimateLon},
	}
	if realVictim != nil {
		trace.RealLocation = []float64{realVictim.Lat, realVictim.Lon}
	}

	entries := make([]TraceEntry, 0, len(result.Trace))
	for _, t := range result.Trace {
		tag := fmt.Sprintf("q%d", t.Query)
		diskPath := e.kmlSnapshotPath(stage, testID, t.Query, tag+"_disk")
		activePath := e.kmlSnapshotPath(stage, testID, t.Query, tag+"_active")

		if _, err := kml.Emit(orb.MultiPolygon{t.Disk}, e.Proj, diskPath); err != nil {
			e.Log.Warn("failed to emit disk snapshot", zap.Error(err))
		}
		if _, err := kml.Emit(t.Candidate, e.Proj, activePath); err != nil {
			e.Log.Warn("failed to emit active-area snapshot", zap.Error(err))
		}

		entries = append(entries, TraceEntry{
			Query:      t.Query,
			Disk:       diskPath,
			ActiveArea: activePath,
			Coords:     []float64{t.AttackerAt.Lat, t.AttackerAt.Lon},
		})
	}

	switch stage {
	case "DUDP":
		trace.DUDP = entries
	case "RUDP":
		trace.RUDP = entries
	}
	return trace
}

// buildCoverageTrace converts a coverage.Run trace into the JSON trace's
// `coverage` stream (spec.md §3/§6), emitting a KML snapshot per probed
// grid vertex regardless of whether the oracle answered TRUE, matching
// `_run_coverage`'s per-vertex `self.json_out["coverage"].append(...)`.
func (e *Engine) buildCoverageTrace(testID string, covTrace []coverage.TraceEntry) []TraceEntry {
	entries := make([]TraceEntry, 0, len(covTrace))
	for _, t := range covTrace {
		tag := fmt.Sprintf("q%d", t.Query)
		diskPath := e.kmlSnapshotPath("coverage", testID, t.Query, tag+"_disk")
		if _, err := kml.Emit(orb.MultiPolygon{t.Disk}, e.Proj, diskPath); err != nil {
			e.Log.Warn("failed to emit coverage disk snapshot", zap.Error(err))
		}
		entries = append(entries, TraceEntry{
			Query:  t.Query,
			Disk:   diskPath,
			Coords: []float64{t.Coords.Lat, t.Coords.Lon},
		})
	}
	return entries
}

func (e *Engine) kmlSnapshotPath(stage, testID string, query uint64, tag string) string {
	return fmt.Sprintf("%s/%s_%s_%s_q_%d_%d_%s.kml", e.Config.KMLDir, e.ServiceTag, stage, testID, e.Pool.RestartCount(), query, tag)
}

func (e *Engine) flush(stage, testID string, trace *AttackTrace) error {
	fileSink := &FileSink{JSONDir: e.Config.JSONDir, Stage: stage}
	if err := fileSink.Record(e.ServiceTag, testID, trace); err != nil {
		return err
	}
	if e.Sink != nil {
		return e.Sink.Record(e.ServiceTag, testID, trace)
	}
	return nil
}
