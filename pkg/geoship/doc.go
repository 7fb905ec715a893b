// Package geoship provides an embeddable location tracking agent.
//
// A Tracker reads fixes from a [LocationSource], forwards each one to a
// [Sink] chosen by the endpoint's URL scheme, and keeps the last status
// lines in a small ring that [Subscriber]s can follow.
//
// # Basic Usage
//
//	tr := geoship.New(geoship.WithGPSD("127.0.0.1:2947"))
//
//	err := tr.Start(ctx, geoship.Config{
//	    Endpoint:              "https://tracker.example.com/api",
//	    UpdateIntervalSeconds: 60,
//	    DeviceID:              "phone-1",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Stop()
//
// # Endpoints
//
// The endpoint scheme selects the sink:
//
//	http, https                      JSON POST to <endpoint>/<device id>
//	redis, rediss                    XADD to geoship:locations:<device id>
//	mqtt, mqtts, tcp, ssl, ws, wss   publish to geoship/<device id>/location
//	amqp, amqps                      publish to the geoship.locations exchange
//	grpc                             unary /geoship.v1.LocationIngest/Submit
//	postgres, postgresql             INSERT into the locations table
//
// An unknown scheme fails Start with an error matching both
// [ErrInvalidConfig] and [ErrUnsupportedEndpoint].
//
// # Lifecycle States
//
// A session moves through [StateStarting], [StateConnecting],
// [StateActive] and optionally [StateSuspended], ending in [StateStopped]
// or, when the configuration is rejected, [StateFailed]. A Tracker can run
// many sessions one after another; [Tracker.Restart] replaces a running
// session without detaching subscribers.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for defaults)
// and pass it via [WithEventHandler]. Events are delivered from the
// tracker's event loop and must return quickly.
package geoship
