// Package cluster provisions ephemeral Kubernetes clusters on cloud
// servers and tracks their provisioning state.
//
// The package is organized around three pieces:
//   - Provisioner — creates the network, SSH key, and servers for a cluster
//   - Manager — derives a single provisioning state label from the cloud
//     API and exposes a best-effort reconcile action
//   - ReadinessWaiter — polls the state until the cluster is ready, with an
//     at-most-once reconcile on observed failure and a wall-clock budget
//
// The waiter sees Manager only through the StateClient interface, so tests
// drive it with scripted fakes.
package cluster
