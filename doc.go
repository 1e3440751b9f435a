// Package zino is a client library for the Zino network-management server.
//
// It speaks Zino's line-oriented request/reply protocol (port 8001) and its
// push notification protocol (port 8002), models the five event kinds Zino
// reports (port state, BGP, BFD, reachability, and chassis alarms), and
// keeps a live event map in sync with server-pushed updates. A secondary
// sub-protocol manages preventive-maintenance windows.
//
// A typical session:
//
//	mgr := zino.NewManager(zino.Config{
//		Server:   "zino.example.org",
//		Username: "ops",
//		Password: "secret",
//	})
//	if err := mgr.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer mgr.Disconnect(ctx)
//
//	if err := mgr.GetEvents(ctx); err != nil {
//		log.Fatal(err)
//	}
//	for id, ev := range mgr.Events() {
//		fmt.Println(id, ev.OpState())
//	}
//
//	handler, err := zino.NewUpdateHandler(ctx, mgr)
//	for {
//		id, err := handler.GetEventUpdate(ctx, time.Second)
//		...
//	}
package zino

// Version identifies the protocol revision this client speaks against.
const Version = "1.0.0"
