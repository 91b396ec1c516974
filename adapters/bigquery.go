package adapters

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"bqexplore/core"
	"bqexplore/secrets"
)

// Register client
func init() {
	_ = register(&BigQuery{}, "bigquery")
}

var _ core.Adapter = (*BigQuery)(nil)

type BigQuery struct{}

// secretsProviders holds one provider per secrets path, so the service
// account material is read and validated at most once per process.
var (
	secretsMu        sync.Mutex
	secretsProviders = make(map[string]*secrets.Provider)
)

func secretsProvider(path string) *secrets.Provider {
	secretsMu.Lock()
	defer secretsMu.Unlock()

	provider, ok := secretsProviders[path]
	if !ok {
		provider = secrets.NewProvider(path)
		secretsProviders[path] = provider
	}

	return provider
}

// Connect creates a [BigQuery] client connected to the project specified
// in the url. The format of the url is as follows:
//
//	bigquery://[project][?options]
//
// where project is optional. If not set, the project will attempt to be
// detected from the credentials and current gcloud settings.
//
// Common options include:
//   - secrets=path/to/secrets.yaml: Secrets file with a gcp_service_account section
//   - credentials=path/to/creds.json: Path to credentials file
//   - max-bytes-billed=integer: Maximum bytes to be billed
//   - disable-query-cache=bool: Whether to disable query cache
//   - use-legacy-sql=bool: Whether to use legacy SQL
//   - location=string: Query location
//
// For local development:
//   - endpoint=url: Custom endpoint (e.g. a bigquery emulator)
//
// If neither secrets nor credentials are specified, they will be located
// according to the Google Default Credentials process.
func (bq *BigQuery) Connect(rawURL string) (core.Driver, error) {
	ctx := context.Background()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "bigquery" {
		return nil, fmt.Errorf("unexpected scheme: %q", u.Scheme)
	}

	if u.Host == "" {
		u.Host = bigquery.DetectProjectID
	}

	options := []option.ClientOption{option.WithTelemetryDisabled()}
	params := u.Query()

	// special param to point the client at an emulator.
	if endpoint := params.Get("endpoint"); endpoint != "" {
		options = append(options,
			option.WithEndpoint(endpoint),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			option.WithoutAuthentication(),
		)
	} else {
		err := callIfStringSet("secrets", params, func(path string) error {
			sa, err := secretsProvider(path).ServiceAccount()
			if err != nil {
				return fmt.Errorf("secrets: %w", err)
			}

			credJSON, err := sa.JSON()
			if err != nil {
				return err
			}

			if u.Host == bigquery.DetectProjectID && sa.ProjectID != "" {
				u.Host = sa.ProjectID
			}
			options = append(options, option.WithCredentialsJSON(credJSON))
			return nil
		})
		if err != nil {
			return nil, err
		}

		_ = callIfStringSet("credentials", params, func(file string) error {
			options = append(options, option.WithCredentialsFile(file))
			return nil
		})
	}

	bqc, err := bigquery.NewClient(ctx, u.Host, options...)
	if err != nil {
		return nil, err
	}

	client := &bigQueryDriver{c: bqc}

	if err := setStringOption(&client.location, "location", params); err != nil {
		return nil, err
	}
	if err := setInt64Option(&client.maxBytesBilled, "max-bytes-billed", params); err != nil {
		return nil, err
	}
	if err := setBoolOption(&client.disableQueryCache, "disable-query-cache", params); err != nil {
		return nil, err
	}
	if err := setBoolOption(&client.useLegacySQL, "use-legacy-sql", params); err != nil {
		return nil, err
	}

	return client, nil
}
