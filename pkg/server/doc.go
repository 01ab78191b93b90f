// Package server exposes a live fibers tree over HTTP.
//
// A Server owns one memhost document, a reconciler Root rendering into it
// and an events System delegating from its container. All tree access runs
// on an idle.Loop goroutine; HTTP handlers and websocket readers hand work
// to the loop with Loop.Do, so the tree is never touched concurrently.
//
// # Endpoints
//
//	GET  /tree                          rendered HTML, or a JSON snapshot with ?format=json
//	POST /nodes/{id}/events/{type}      dispatch a native event at a host node
//	GET  /ws                            binary stream of mutation frames
//	GET  /metrics                       Prometheus metrics
//	GET  /snapshots                     stored snapshot names (when a Store is configured)
//	POST /snapshots/{name}              capture and store the live tree
//	GET  /snapshots/{name}              load a stored snapshot
//
// # Mutation Stream
//
// A websocket client first receives a Mutations frame flagged FlagInitial
// that rebuilds the whole container. After that, every commit is sent as
// one Mutations frame carrying the host mutations it applied. Clients may
// send Event frames; they are dispatched exactly like POSTed events.
//
//	loop := idle.NewLoop()
//	go loop.Run(ctx)
//
//	srv := server.New(loop, server.DefaultConfig())
//	srv.Render(ctx, demo.App)
//	http.ListenAndServe(":7070", srv.Handler())
package server
