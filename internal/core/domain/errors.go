package domain

import "errors"

var ErrMemberNotFound = errors.New("member not found")
var ErrAssociationNotFound = errors.New("card association not found")
var ErrNoRecentCard = errors.New("no recently connected card")
var ErrCardUIDConflict = errors.New("card is already associated with another user")

// ErrSaleNotSent flags the non-atomic failure mode of sale posting: the
// invoice was created upstream but the follow-up send call failed, so the
// sale exists in an unsent state and the buyer was not notified. There is
// no automatic compensation.
var ErrSaleNotSent = errors.New("sale created but could not be marked as sent")
