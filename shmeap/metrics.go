package shmeap

import "github.com/prometheus/client_golang/prometheus"

// Collector exports a heap's Stats as Prometheus metrics.
//
// Collecting never maps the region: until the heap is initialised nothing
// is emitted.
type Collector struct {
	h *Heap

	capacity *prometheus.Desc
	used     *prometheus.Desc
	free     *prometheus.Desc
	largest  *prometheus.Desc
	blocks   *prometheus.Desc
	allocs   *prometheus.Desc
	frees    *prometheus.Desc
	failures *prometheus.Desc
}

// NewCollector creates a collector for h. Metric names are prefixed with
// namespace, e.g. "<namespace>_used_bytes".
func NewCollector(h *Heap, namespace string) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &Collector{
		h:        h,
		capacity: desc("capacity_bytes", "Usable bytes in the heap region."),
		used:     desc("used_bytes", "Bytes currently allocated."),
		free:     desc("free_bytes", "Bytes currently free."),
		largest:  desc("largest_free_block_bytes", "Size of the largest free block."),
		blocks:   desc("free_blocks", "Number of free blocks."),
		allocs:   desc("allocs_total", "Allocation requests served or refused."),
		frees:    desc("frees_total", "Releases."),
		failures: desc("alloc_failures_total", "Allocation requests that could not be satisfied."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.used
	ch <- c.free
	ch <- c.largest
	ch <- c.blocks
	ch <- c.allocs
	ch <- c.frees
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s, ok := c.h.Stats()
	if !ok {
		return
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge(c.capacity, float64(s.Capacity))
	gauge(c.used, float64(s.Used))
	gauge(c.free, float64(s.Free))
	gauge(c.largest, float64(s.Largest))
	gauge(c.blocks, float64(s.Blocks))
	counter(c.allocs, s.AllocCalls)
	counter(c.frees, s.FreeCalls)
	counter(c.failures, s.AllocFailures)
}
