package payment

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCharge(string, string)  {}
func (NoopMetricsCollector) RecordWebhook(string, string) {}
