// Package refresh keeps a fitted CompositeLoader current by refitting it on a
// cron schedule.
//
//	r, err := refresh.New(refresh.Config[data.Records, *transforms.OneHotTransformer]{
//		Schedule:  "0 */15 * * * *",
//		Estimator: composite,
//		Source:    fetchRecords,
//	})
//	if err != nil {
//		return err
//	}
//	if _, err := r.RefitNow(ctx); err != nil {
//		return err
//	}
//	r.Start()
//	defer r.Stop(context.Background())
//
//	view, err := r.Load(ctx, batch)
//
// Schedules use the cron syntax of github.com/robfig/cron/v3 with an optional
// seconds field. A scheduled run is skipped while the previous one is still
// going, and refits of one Refresher never overlap.
//
// Each successful refit publishes a new immutable loader. Readers holding the
// previous loader keep using it safely. A failed refit is logged, counted and
// reported to OnRefit, and the previous loader stays current.
package refresh
