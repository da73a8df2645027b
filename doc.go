// Package procflow provides a workflow engine for business processes mixing
// automated, AI-assisted and human steps.
//
// Flows are declared as a set of typed steps with dependencies (YAML or JSON).
// The engine builds dependency levels, runs every level concurrently behind a
// barrier and records a full audit trail of decisions, interventions and
// errors per execution. Pluggable service layers include:
//
//   - registry  – flow validation and storage
//   - processor – level scheduling, pause/resume, SLA escalation
//   - executor  – step dispatch with retries, timeouts and policies
//   - approval  – human work queue and blocking approvals
//   - failure   – fallback, escalation and failure handling
//
// End-users typically interact with the engine via the high-level Service
// façade exposed by the root package:
//
//	srv := procflow.New()
//	rt := srv.Runtime()
//	flow, _ := rt.LoadFlow(ctx, "expense.yaml")
//	_, _ = rt.RegisterFlow(ctx, flow)
//	id, _ := rt.Execute(ctx, flow.ID, map[string]interface{}{"amount": 120})
//	exec, _ := rt.Wait(ctx, id, time.Minute)
package procflow
