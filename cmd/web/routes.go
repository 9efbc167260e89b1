package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes(exposeMetrics bool) http.Handler {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.metrics.RequestMetrics(app.logAndTraceRequest(secureHeaders(
				app.crossOriginProtection(app.timeout(next))))))
		}
		api = func(h http.HandlerFunc) http.Handler {
			return shared(h)
		}
	)

	mux.Handle("POST /api/goals/classify", api(app.goalClassifyPOST))
	mux.Handle("POST /api/goals", api(app.goalCreatePOST))
	mux.Handle("GET /api/goals", api(app.goalsGET))
	mux.Handle("GET /api/goals/{id}", api(app.goalGET))
	mux.Handle("DELETE /api/goals/{id}", api(app.goalDELETE))
	mux.Handle("POST /api/goals/{id}/progress", api(app.goalProgressPOST))
	mux.Handle("POST /api/goals/{id}/status", api(app.goalStatusPOST))
	mux.Handle("POST /api/goals/{id}/target", api(app.goalTargetPOST))
	mux.Handle("POST /api/goals/{id}/milestones", api(app.goalMilestonesPOST))

	mux.Handle("GET /api/profile", api(app.profileGET))
	mux.Handle("PUT /api/profile", api(app.profilePUT))

	mux.Handle("GET /api/exercises", api(app.exercisesGET))
	mux.Handle("POST /api/exercises/{id}/logs", api(app.exerciseLogPOST))
	mux.Handle("GET /api/exercises/{id}/progression", api(app.exerciseProgressionGET))
	mux.Handle("GET /api/activities", api(app.activitiesGET))

	mux.Handle("POST /api/plans/{week}/generate", api(app.planGeneratePOST))
	mux.Handle("GET /api/plans/{week}", api(app.planGET))
	mux.Handle("POST /api/plans/{week}/activate", api(app.planActivatePOST))
	mux.Handle("POST /api/plans/{week}/complete", api(app.planCompletePOST))
	mux.Handle("POST /api/plans/{week}/abandon", api(app.planAbandonPOST))
	mux.Handle("GET /api/justifications/{dayID}", api(app.justificationGET))

	mux.Handle("GET /api/periodization", api(app.periodizationGET))
	mux.Handle("GET /api/healthy", api(app.healthy))

	if exposeMetrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{
			ErrorLog:          nil,
			EnableOpenMetrics: false,
			Registry:          app.registry,
		}))
	}

	mux.Handle("/", api(app.notFound))

	return mux
}
