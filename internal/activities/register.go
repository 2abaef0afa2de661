package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.FindSimilarActivity)
	w.RegisterActivity(a.GenerateDraftActivity)
	w.RegisterActivity(a.SynthesizeActivity)
	w.RegisterActivity(a.SaveGenerationActivity)
	w.RegisterActivity(a.LogGenerationCallActivity)
}
