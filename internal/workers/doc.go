/*
Package workers sizes worker pools from the CPUs actually available to the
process.

Document submission to the search engine is network bound, so the indexer
runs two submitters per CPU:

	limit := workers.ForIO(8) // at most 8

GOMAXPROCS, not runtime.NumCPU, is the CPU count: in a container with a
CPU limit of 2 on a 64-core node, ForIO(8) returns 4.

Operators can pin the count with SUBMIT_WORKERS:

	env:
	- name: SUBMIT_WORKERS
	  value: "2"

The override is still capped by the limit passed by the caller.
*/
package workers
