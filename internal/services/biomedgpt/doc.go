// Package biomedgpt wraps the cloud BioMedGPT inference endpoint used by the
// reasoning stage. The client is strictly text-in/text-out: it ships report
// text and a clinical question and receives a grounded answer. Transient
// failures are retried with bounded backoff.
package biomedgpt
