package projector

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/namehash"
)

// HandleNameRegistered records a new registration. The stored
// registration for the label, if any, is replaced.
func (p *Projector) HandleNameRegistered(ctx context.Context, ev chain.NameRegistered) (Outcome, error) {
	return p.observe(ctx, ev, func(ctx context.Context) (Outcome, error) {
		label, err := namehash.LabelFromTokenID(ev.ID)
		if err != nil {
			return "", newError(ErrCodeInvalidEvent, ev, "token id is not a label", err)
		}
		if ev.LabelName != nil {
			if namehash.LabelHash(*ev.LabelName) != label {
				return "", newError(ErrCodeInvalidEvent, ev, "label name does not hash to token id", nil)
			}
		} else {
			name, err := p.lookupLabel(ctx, ev, label)
			if err != nil {
				// A redelivered event is still a duplicate while the
				// resolver is down.
				return p.unitOfWork(ctx, ev, func(entity.Repository) (Outcome, error) {
					return "", err
				})
			}
			ev.LabelName = name
		}
		labelName := ev.LabelName

		owner := namehash.AccountID(ev.Owner)
		regID := namehash.RegistrationID(label)

		return p.unitOfWork(ctx, ev, func(repo entity.Repository) (Outcome, error) {
			if err := repo.EnsureAccount(ctx, owner); err != nil {
				return "", err
			}
			err := repo.SaveRegistration(ctx, entity.Registration{
				ID:               regID,
				Domain:           namehash.DomainID(p.root, label),
				RegistrationDate: ev.BlockTimestamp,
				ExpiryDate:       ev.Expires,
				Registrant:       owner,
				LabelName:        labelName,
			})
			if err != nil {
				return "", err
			}
			err = repo.AppendNameRegistered(ctx, entity.NameRegistered{
				ID:            ev.EventID(),
				Registration:  regID,
				BlockNumber:   ev.BlockNumber,
				TransactionID: ev.TxHash.Hex(),
				Registrant:    owner,
				ExpiryDate:    ev.Expires,
			})
			if err != nil {
				return "", err
			}
			return OutcomeApplied, nil
		})
	})
}

// HandleNameRegisteredByController attaches the plaintext name and cost
// from a controller registration.
func (p *Projector) HandleNameRegisteredByController(ctx context.Context, ev chain.ControllerNameRegistered) (Outcome, error) {
	return p.observe(ctx, ev, func(ctx context.Context) (Outcome, error) {
		return p.applyControllerName(ctx, ev, ev.Label, ev.Name, ev.Cost)
	})
}

// HandleNameRenewedByController behaves exactly like
// HandleNameRegisteredByController.
func (p *Projector) HandleNameRenewedByController(ctx context.Context, ev chain.ControllerNameRenewed) (Outcome, error) {
	return p.observe(ctx, ev, func(ctx context.Context) (Outcome, error) {
		return p.applyControllerName(ctx, ev, ev.Label, ev.Name, ev.Cost)
	})
}

func (p *Projector) applyControllerName(ctx context.Context, ev chain.Event, label common.Hash, name string, cost *big.Int) (Outcome, error) {
	if cost == nil || cost.Sign() < 0 {
		return "", newError(ErrCodeInvalidEvent, ev, "cost must be a non-negative integer", nil)
	}
	domainID := namehash.DomainID(p.root, label)
	regID := namehash.RegistrationID(label)

	return p.unitOfWork(ctx, ev, func(repo entity.Repository) (Outcome, error) {
		d, err := repo.GetOrCreateDomain(ctx, domainID)
		if err != nil {
			return "", err
		}
		// Only write when the label actually changed.
		if d.LabelName == nil || *d.LabelName != name {
			d.LabelName = entity.StringPtr(name)
			d.Name = entity.StringPtr(name + p.suffix)
			if err := repo.SaveDomain(ctx, d); err != nil {
				return "", err
			}
		}

		reg, ok, err := repo.GetRegistration(ctx, regID)
		if err != nil {
			return "", err
		}
		if !ok {
			p.logger.Debug("registration not tracked, skipping label and cost",
				"event_id", ev.Meta().EventID(), "label", regID)
			return OutcomeTolerated, nil
		}
		reg.LabelName = entity.StringPtr(name)
		reg.Cost = new(big.Int).Set(cost)
		if err := repo.SaveRegistration(ctx, reg); err != nil {
			return "", err
		}
		return OutcomeApplied, nil
	})
}

// HandleNameRenewed extends the expiry of an existing registration.
// Returns a MISSING_REQUIRED_RECORD error when the registration is not
// tracked; nothing is written in that case.
func (p *Projector) HandleNameRenewed(ctx context.Context, ev chain.NameRenewed) (Outcome, error) {
	return p.observe(ctx, ev, func(ctx context.Context) (Outcome, error) {
		label, err := namehash.LabelFromTokenID(ev.ID)
		if err != nil {
			return "", newError(ErrCodeInvalidEvent, ev, "token id is not a label", err)
		}
		regID := namehash.RegistrationID(label)

		return p.unitOfWork(ctx, ev, func(repo entity.Repository) (Outcome, error) {
			reg, ok, err := repo.GetRegistration(ctx, regID)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", newMissingRecordError(ev, "registration", regID)
			}
			reg.ExpiryDate = ev.Expires
			if err := repo.SaveRegistration(ctx, reg); err != nil {
				return "", err
			}
			err = repo.AppendNameRenewed(ctx, entity.NameRenewed{
				ID:            ev.EventID(),
				Registration:  regID,
				BlockNumber:   ev.BlockNumber,
				TransactionID: ev.TxHash.Hex(),
				ExpiryDate:    ev.Expires,
			})
			if err != nil {
				return "", err
			}
			return OutcomeApplied, nil
		})
	})
}

// HandleNameTransferred moves a registration to a new owner. The owner
// account is recorded even when the registration is not tracked.
func (p *Projector) HandleNameTransferred(ctx context.Context, ev chain.Transfer) (Outcome, error) {
	return p.observe(ctx, ev, func(ctx context.Context) (Outcome, error) {
		label, err := namehash.LabelFromTokenID(ev.TokenID)
		if err != nil {
			return "", newError(ErrCodeInvalidEvent, ev, "token id is not a label", err)
		}
		regID := namehash.RegistrationID(label)
		to := namehash.AccountID(ev.To)

		return p.unitOfWork(ctx, ev, func(repo entity.Repository) (Outcome, error) {
			if err := repo.EnsureAccount(ctx, to); err != nil {
				return "", err
			}
			reg, ok, err := repo.GetRegistration(ctx, regID)
			if err != nil {
				return "", err
			}
			if !ok {
				p.logger.Debug("registration not tracked, recording owner only",
					"event_id", ev.EventID(), "label", regID)
				return OutcomeTolerated, nil
			}
			reg.Registrant = to
			if err := repo.SaveRegistration(ctx, reg); err != nil {
				return "", err
			}
			err = repo.AppendNameTransferred(ctx, entity.NameTransferred{
				ID:            ev.EventID(),
				Registration:  regID,
				BlockNumber:   ev.BlockNumber,
				TransactionID: ev.TxHash.Hex(),
				NewOwner:      to,
			})
			if err != nil {
				return "", err
			}
			return OutcomeApplied, nil
		})
	})
}
