// Package store is the HTTP client for a joymap mapping store.
//
// A store serves the mapping document at /mapping: GET returns it and POST
// merges the posted document into it. The client adds retry with backoff for
// loads, classifies failures into StoreError values with troubleshooting
// hints, and can subscribe to change notifications over a websocket.
//
// # Usage Example
//
//	client := store.NewClient("raspberrypi.local", store.DefaultPort)
//	doc, err := client.Load(ctx)
//	if err != nil {
//	    fmt.Println(store.GetShortErrorMessage(err))
//	    fmt.Println(store.GetTroubleshootingHint(err))
//	    return err
//	}
//
//	text, err := client.Save(ctx, doc)
//
// Saves are never retried; the store's reply text is returned as-is so it
// can be shown to the operator.
package store
