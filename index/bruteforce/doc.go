// Package bruteforce provides a spatial index that answers queries by scanning
// every point. It is exact by construction and serves as the baseline for
// small datasets.
package bruteforce
