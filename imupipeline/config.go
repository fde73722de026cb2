package imupipeline

import "github.com/e7canasta/orion-wear-imu/imupipeline/internal"

// Config is the construction-time pipeline configuration. Zero values take
// the package defaults; there is no hot reload.
type Config = internal.Config

// SourceConfig identifies one watch endpoint.
type SourceConfig = internal.SourceConfig

// Defaults applied by New for zero Config fields.
const (
	DefaultQueueCapacity    = internal.DefaultQueueCapacity
	DefaultPoolCapacity     = internal.DefaultPoolCapacity
	DefaultStalenessTimeout = internal.DefaultStalenessTimeout
	DefaultIdleSleep        = internal.DefaultIdleSleep
	DefaultBatchSize        = internal.DefaultBatchSize
	DefaultReconnectMinWait = internal.DefaultReconnectMinWait
	DefaultReconnectMaxWait = internal.DefaultReconnectMaxWait
)
