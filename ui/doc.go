// Package ui provides an embedded web UI for compaction diagnostics.
//
// The handler serves two views: the audit event log (summary_updated and
// summary_failed records, read from PostgreSQL or from the daily JSON-lines
// files) and the live compaction state of a running engine, with the current
// tool history summary rendered as markdown. Every HTML page has a JSON twin
// under /api.
//
// # Quick Start
//
//	pool, _ := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
//	store := storage.NewPostgresStore(pool)
//
//	mux := http.NewServeMux()
//	mux.Handle("/ui/", http.StripPrefix("/ui", ui.Handler(store, engine, &ui.Config{
//	    BasePath: "/ui",
//	})))
//
//	http.ListenAndServe(":8080", mux)
//
// Without a database, read the audit files directly:
//
//	events := ui.NewFileSource(audit.DefaultDir(), "")
//	mux.Handle("/", ui.Handler(events, nil, nil))
//
// # Adding Middleware
//
// Wrap the handler externally using standard Go patterns:
//
//	http.Handle("/ui/", http.StripPrefix("/ui", authMiddleware(ui.Handler(store, engine, cfg))))
package ui
