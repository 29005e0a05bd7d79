package mongodb

import (
	"context"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Connector is the connection lifecycle the reconciler drives.
type Connector interface {
	UID() string
	Connect(ctx context.Context) (DatabaseHandle, error)
	Disconnect(ctx context.Context) error
}

// Reconciler ensures that declared collections and indexes exist. It only
// creates what is missing and never modifies or removes anything.
type Reconciler struct {
	conn     Connector
	checker  Checker
	logger   core.Logger
	tracer   trace.Tracer
	observer Observer
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcilerChecker sets the validator used for the structure.
func WithReconcilerChecker(c Checker) ReconcilerOption {
	return func(r *Reconciler) {
		r.checker = c
	}
}

// WithReconcilerLogger sets the logger.
func WithReconcilerLogger(l core.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReconcilerTracer sets the tracer.
func WithReconcilerTracer(t trace.Tracer) ReconcilerOption {
	return func(r *Reconciler) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithReconcilerObserver sets the observer.
func WithReconcilerObserver(o Observer) ReconcilerOption {
	return func(r *Reconciler) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewReconciler returns a Reconciler driving conn.
func NewReconciler(conn Connector, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		conn:     conn,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Global()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(TracerName)
	}
	return r
}

// Bootstrap validates structure, connects, ensures every collection and
// index in declared order, and disconnects.
//
// A nil structure only checks connectivity. Driver errors abort the run
// and leave the connection open; results where the driver reports that
// nothing was created are recorded as failed steps and logged as warnings.
// A failure to disconnect at the end is fatal. The report is returned in
// every case.
func (r *Reconciler) Bootstrap(ctx context.Context, structure []CollectionStructure) (report *Report, err error) {
	report = newReport(r.conn.UID())

	ctx, span := r.tracer.Start(ctx, "mongodb.bootstrap", trace.WithAttributes(
		attribute.String("mongodb.uid", report.UID),
		attribute.Int("mongodb.collections", len(structure)),
	))
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		r.observer.ObserveBootstrap(report.UID, report.Duration, err)
		if err != nil {
			r.enter(report, PhaseFailure)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Errorw("Bootstrap failed", "error", err, "steps", len(report.Steps))
		} else {
			r.enter(report, PhaseSuccess)
			r.logger.Infow("Bootstrap finished",
				"created", report.Created(),
				"failed", report.Count(OutcomeFailed),
				"duration", report.Duration)
		}
		span.End()
	}()

	if structure != nil {
		if err := ValidateStructure(structure, r.checker); err != nil {
			return report, err
		}
	}

	r.enter(report, PhaseConnectivityCheck)
	db, err := r.conn.Connect(ctx)
	if err != nil {
		return report, err
	}

	if structure != nil {
		r.enter(report, PhaseStructureEnsuring)
		for _, cs := range structure {
			if err := r.ensureCollection(ctx, db, cs, report); err != nil {
				return report, err
			}
		}
	}

	r.enter(report, PhaseClosing)
	if err := r.conn.Disconnect(ctx); err != nil {
		return report, ErrOperationFailure.WithOp("bootstrap.close").WithCause(err)
	}
	return report, nil
}

func (r *Reconciler) enter(report *Report, phase Phase) {
	report.Phase = phase
	r.logger.Debugw("Bootstrap phase", "phase", phase)
}

func (r *Reconciler) ensureCollection(ctx context.Context, db DatabaseHandle, cs CollectionStructure, report *Report) error {
	docs, err := db.ListCollections(ctx, cs.Name)
	if err != nil {
		return ErrOperationFailure.WithOp("bootstrap.listCollections").
			WithContext(map[string]interface{}{"collection": cs.Name}).WithCause(err)
	}
	exists, err := containsCollection(docs, cs.Name, "bootstrap.listCollections")
	if err != nil {
		return err
	}

	step := StepResult{Kind: StepCollection, Collection: cs.Name, Outcome: OutcomeAlreadyExists}
	if !exists {
		created, err := db.CreateCollection(ctx, cs.Name)
		if err != nil {
			return ErrOperationFailure.WithOp("bootstrap.createCollection").
				WithContext(map[string]interface{}{"collection": cs.Name}).WithCause(err)
		}
		step.Outcome = OutcomeCreated
		if !created {
			step.Outcome = OutcomeFailed
			step.Reason = "driver reported the collection was not created"
		}
	}
	r.record(report, step)

	coll := db.Collection(cs.Name)
	for _, idx := range cs.Idx {
		if err := r.ensureIndex(ctx, coll, cs.Name, idx, report); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) ensureIndex(ctx context.Context, coll CollectionHandle, collection string, idx IndexStructure, report *Report) error {
	errCtx := map[string]interface{}{"collection": collection, "index": idx.Name}

	exists, err := coll.IndexExists(ctx, idx.Name)
	if err != nil {
		return ErrOperationFailure.WithOp("bootstrap.indexExists").WithContext(errCtx).WithCause(err)
	}

	step := StepResult{Kind: StepIndex, Collection: collection, Index: idx.Name, Outcome: OutcomeAlreadyExists}
	if !exists {
		name, err := coll.CreateIndex(ctx, idx.Spec.Keys(), indexOptions(idx))
		if err != nil {
			return ErrOperationFailure.WithOp("bootstrap.createIndex").WithContext(errCtx).WithCause(err)
		}
		step.Outcome = OutcomeCreated
		if name == "" {
			step.Outcome = OutcomeFailed
			step.Reason = "driver reported the index was not created"
		}
	}
	r.record(report, step)
	return nil
}

// indexOptions merges background:true, the declared options and the
// declared name, later entries winning.
func indexOptions(idx IndexStructure) bson.M {
	opts := bson.M{"background": true}
	for k, v := range idx.Options {
		opts[k] = v
	}
	opts["name"] = idx.Name
	return opts
}

func (r *Reconciler) record(report *Report, step StepResult) {
	report.Steps = append(report.Steps, step)
	r.observer.ObserveStep(report.UID, step)

	kv := []interface{}{
		"kind", step.Kind,
		"collection", step.Collection,
		"outcome", step.Outcome,
	}
	if step.Index != "" {
		kv = append(kv, "index", step.Index)
	}

	if step.Outcome == OutcomeFailed {
		report.Warnings = append(report.Warnings, describe(step.Collection, step.Index, step.Reason))
		r.logger.Warnw("Bootstrap step did not create anything", append(kv, "reason", step.Reason)...)
		return
	}
	r.logger.Infow("Bootstrap step", kv...)
}
