// Package membership provides domain models for membership applications.
//
// Applications are submitted publicly and reviewed by an admin, who may set
// any status at any time. Issuing a payment link is a side action that only
// records a checkout session ID; payment completion later marks the
// application paid. A paid application is never allowed to be rejected, and
// a rejected one is never marked paid.
//
// Applications that received a payment link but were never paid are
// removed by the abandoned application reaper once they are older than
// AbandonmentAge.
package membership
