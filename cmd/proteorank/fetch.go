package main

import (
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/proteorank/proteorank/fetch"
)

func newFetchCmd() *cobra.Command {
	var (
		dest        string
		rateLimit   float64
		concurrency int
		overwrite   bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <name>...",
		Short: "Download reference data files (matrices, mappings) into a local directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildStore(cmd)
			if err != nil {
				return err
			}

			f := fetch.New(store,
				fetch.WithRateLimit(rate.NewLimiter(rate.Limit(rateLimit), 1)),
				fetch.WithConcurrency(concurrency),
				fetch.WithSkipExisting(!overwrite),
				fetch.WithLogger(newLogger().Logger),
			)
			return f.FetchAll(cmd.Context(), args, dest)
		},
	}

	cmd.Flags().StringVar(&dest, "dest", ".", "destination directory")
	cmd.Flags().Float64Var(&rateLimit, "rate", 1, "downloads per second")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel downloads")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "re-download files that already exist")
	cmd.Flags().String("store", "http", "backing store (http, local, s3, minio)")
	cmd.Flags().String("base", "", "store base: URL, directory, or bucket")
	cmd.Flags().String("prefix", "", "key prefix inside the bucket")
	cmd.Flags().String("minio-endpoint", "", "minio endpoint host:port")

	return cmd
}

func buildStore(cmd *cobra.Command) (fetch.Store, error) {
	kind, _ := cmd.Flags().GetString("store")
	base, _ := cmd.Flags().GetString("base")
	prefix, _ := cmd.Flags().GetString("prefix")

	switch kind {
	case "local":
		return fetch.NewLocal(base), nil
	case "http":
		return fetch.NewHTTP(base, http.DefaultClient)
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(cmd.Context())
		if err != nil {
			return nil, err
		}
		return fetch.NewS3(awss3.NewFromConfig(cfg), base, prefix), nil
	case "minio":
		endpoint, _ := cmd.Flags().GetString("minio-endpoint")
		client, err := minio.New(endpoint, &minio.Options{
			Creds: credentials.NewStaticV4(
				viper.GetString("minio-access-key"),
				viper.GetString("minio-secret-key"), ""),
			Secure: true,
		})
		if err != nil {
			return nil, err
		}
		return fetch.NewMinIO(client, base, prefix), nil
	default:
		return nil, fmt.Errorf("unknown store: %q", kind)
	}
}
