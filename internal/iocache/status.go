package iocache

import (
	"fmt"
	"io"

	"github.com/huangsam/runlens/schema"
)

// PrintCacheStatus prints result cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Entries: %d\n", status.Entries)
	_, _ = fmt.Fprintf(w, "Default TTL: %s\n", status.DefaultTTL)
	_, _ = fmt.Fprintf(w, "Single Flight: %t\n", status.SingleFlight)
	_, _ = fmt.Fprintf(w, "Hits: %d Misses: %d Computes: %d Failures: %d\n",
		status.Hits, status.Misses, status.Computes, status.Failures)
	for _, key := range status.Keys {
		_, _ = fmt.Fprintf(w, "  %s\n", key)
	}
}

// PrintCatalogStatus prints execution catalog status information.
func PrintCatalogStatus(w io.Writer, status schema.CatalogStatus) {
	_, _ = fmt.Fprintf(w, "Catalog Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Configured: %t\n", status.Configured)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Executions: %d\n", status.TotalExecutions)
	_, _ = fmt.Fprintf(w, "Total Messages: %d\n", status.TotalMessages)
	if status.TotalExecutions > 0 {
		_, _ = fmt.Fprintf(w, "Oldest Execution: %s\n", status.OldestStartTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Latest Execution: %s\n", status.LatestStartTime.Format("2006-01-02 15:04:05"))
	}
}
