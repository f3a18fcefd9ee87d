package config

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type"`             // Type of storage ("s3", "gcs", "local").
	BucketName      string `yaml:"bucket_name"`      // Default bucket name for operations.
	Region          string `yaml:"region"`           // Region for S3-style backends.
	Anonymous       bool   `yaml:"anonymous"`        // Use unsigned requests (public buckets).
	CredentialsFile string `yaml:"credentials_file"` // Path to credentials file (e.g., service account key for GCS).
	BaseDir         string `yaml:"base_dir"`         // Base directory for local file system operations.
}
