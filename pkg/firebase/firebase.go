package firebase

import (
	"context"

	"sos-service/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// SetUpFireBase initializes the Firebase app and its messaging client used as
// the push gateway.
func SetUpFireBase(cfg *config.Config) (*firebase.App, *messaging.Client, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.FirebaseCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, nil, err
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, nil, err
	}

	return app, client, nil
}
