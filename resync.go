package evdev

// runResync rebuilds the State Cache after a SYN_DROPPED marker (or on
// an explicit ForceSync request) and returns the ordered delta of
// synthesized events needed to bring a downstream consumer's mirror of
// the state up to date, terminated by a single SYN_REPORT (§4.4 step
// 2-7). The cache itself is updated in place as each category is
// refetched; a category whose refetch fails is logged at INFO and left
// at its pre-resync value, so one failing ioctl never aborts the whole
// resync (§4.5).
func runResync(cache *StateCache, kernel kernelAdapter, ts InputEvent) []InputEvent {
	old := cache.clone()
	var delta []InputEvent

	resyncKeys(cache, kernel, old, &delta, ts)
	resyncLEDs(cache, kernel, old, &delta, ts)
	resyncSwitches(cache, kernel, old, &delta, ts)
	resyncAbsAxes(cache, kernel, old, &delta, ts)
	resyncSlots(cache, kernel, old, &delta, ts)
	resyncRepeat(cache, kernel, old, &delta, ts)

	delta = append(delta, synEvent(ts, SynReport, 0))
	return delta
}

func resyncKeys(cache *StateCache, kernel kernelAdapter, old *StateCache, delta *[]InputEvent, ts InputEvent) {
	if !cache.caps.HasType(EvKey) {
		return
	}
	fresh, err := kernel.refetchKeyState()
	if err != nil {
		logf(PriorityInfo, "evdev: resync: key state refetch failed, skipping category: %v", err)
		return
	}
	for code := 0; code < keyCnt; code++ {
		if !cache.caps.HasCode(EvKey, code) {
			continue
		}
		if old.key[code] == fresh[code] {
			continue
		}
		cache.setValue(EvKey, code, fresh[code])
		*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvKey, Code: uint16(code), Value: fresh[code]})
	}
}

func resyncLEDs(cache *StateCache, kernel kernelAdapter, old *StateCache, delta *[]InputEvent, ts InputEvent) {
	if !cache.caps.HasType(EvLed) {
		return
	}
	fresh, err := kernel.refetchLEDState()
	if err != nil {
		logf(PriorityInfo, "evdev: resync: LED state refetch failed, skipping category: %v", err)
		return
	}
	for code := 0; code < ledCnt; code++ {
		if !cache.caps.HasCode(EvLed, code) {
			continue
		}
		if old.led[code] == fresh[code] {
			continue
		}
		cache.setValue(EvLed, code, fresh[code])
		*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvLed, Code: uint16(code), Value: fresh[code]})
	}
}

func resyncSwitches(cache *StateCache, kernel kernelAdapter, old *StateCache, delta *[]InputEvent, ts InputEvent) {
	if !cache.caps.HasType(EvSwitch) {
		return
	}
	fresh, err := kernel.refetchSwitchState()
	if err != nil {
		logf(PriorityInfo, "evdev: resync: switch state refetch failed, skipping category: %v", err)
		return
	}
	for code := 0; code < switchCnt; code++ {
		if !cache.caps.HasCode(EvSwitch, code) {
			continue
		}
		if old.sw[code] == fresh[code] {
			continue
		}
		cache.setValue(EvSwitch, code, fresh[code])
		*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvSwitch, Code: uint16(code), Value: fresh[code]})
	}
}

// resyncAbsAxes resynchronizes the non-multi-touch absolute axes. On a
// device with a slot table, MT codes and the ABS_MT_SLOT selector itself
// are handled separately by resyncSlots so that slot-select events
// interleave correctly with per-slot code changes (§4.4 step 6-7); on a
// fake-MT or slotless device they are refetched here as plain axes.
func resyncAbsAxes(cache *StateCache, kernel kernelAdapter, old *StateCache, delta *[]InputEvent, ts InputEvent) {
	if !cache.caps.HasType(EvAbs) {
		return
	}
	for code := 0; code < absCnt; code++ {
		if isMTCode(code) && cache.slotCount > 0 && !cache.fakeMT {
			continue
		}
		if !cache.caps.HasCode(EvAbs, code) {
			continue
		}
		fresh, err := kernel.refetchAbsAxis(code)
		if err != nil {
			logf(PriorityInfo, "evdev: resync: abs axis %d refetch failed, skipping: %v", code, err)
			continue
		}
		if old.abs[code] == fresh {
			continue
		}
		cache.setValue(EvAbs, code, fresh)
		*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvAbs, Code: uint16(code), Value: fresh})
	}
}

// resyncSlots resynchronizes multi-touch state slot by slot. A fake
// multi-touch device (§9, §11) has no slot table and is skipped
// entirely; its single ABS_MT_* axes were already folded into
// resyncAbsAxes since applyAbsRecord never slot-routes them.
func resyncSlots(cache *StateCache, kernel kernelAdapter, old *StateCache, delta *[]InputEvent, ts InputEvent) {
	if cache.slotCount == 0 || cache.fakeMT {
		return
	}

	fresh := make([][absCnt]int32, cache.slotCount)
	for s := range fresh {
		fresh[s] = old.slotValue[s]
	}
	anyFetched := false
	for code := absMTFirst; code <= absMTLast; code++ {
		if code == absMTSlot {
			continue
		}
		if !cache.caps.HasCode(EvAbs, code) {
			continue
		}
		vals, err := kernel.refetchSlotValues(code, cache.slotCount)
		if err != nil {
			logf(PriorityInfo, "evdev: resync: MT code %d slot refetch failed, skipping: %v", code, err)
			continue
		}
		anyFetched = true
		for s := 0; s < cache.slotCount && s < len(vals); s++ {
			fresh[s][code] = vals[s]
		}
	}
	if !anyFetched {
		return
	}

	emittedSlotSelect := false
	for slot := 0; slot < cache.slotCount; slot++ {
		oldTID := old.slotValue[slot][absMTTrackingID]
		newTID := fresh[slot][absMTTrackingID]

		changedCodes := make([]int, 0, absMTLast-absMTFirst+1)
		for code := absMTFirst; code <= absMTLast; code++ {
			if code == absMTSlot || code == absMTTrackingID {
				continue
			}
			if !cache.caps.HasCode(EvAbs, code) {
				continue
			}
			if old.slotValue[slot][code] != fresh[slot][code] {
				changedCodes = append(changedCodes, code)
			}
		}

		tidChanged := oldTID != newTID
		if !tidChanged && len(changedCodes) == 0 {
			continue
		}
		// A slot whose contact identity changed but landed back on
		// "inactive" only needs the tracking-ID event (rule 7): there is
		// no live contact left to carry other code changes.
		if tidChanged && newTID == trackingIDInactive {
			changedCodes = nil
		}

		if slot != cache.currentSlot || !emittedSlotSelect {
			*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvAbs, Code: absMTSlot, Value: int32(slot)})
			cache.setCurrentSlot(slot)
			emittedSlotSelect = true
		}
		if tidChanged {
			// A slot whose contact was replaced mid-drop (old id live,
			// new id different and also live) never actually saw its old
			// contact die on the wire: synthesize that death first, so a
			// consumer never observes one tracking id turn into another
			// without an intervening release (rule 7).
			if oldTID != trackingIDInactive && newTID != trackingIDInactive {
				cache.setSlotValue(slot, absMTTrackingID, trackingIDInactive)
				*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvAbs, Code: absMTTrackingID, Value: trackingIDInactive})
			}
			cache.setSlotValue(slot, absMTTrackingID, newTID)
			*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvAbs, Code: absMTTrackingID, Value: newTID})
		}
		for _, code := range changedCodes {
			cache.setSlotValue(slot, code, fresh[slot][code])
			*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvAbs, Code: uint16(code), Value: fresh[slot][code]})
		}
	}
}

func resyncRepeat(cache *StateCache, kernel kernelAdapter, old *StateCache, delta *[]InputEvent, ts InputEvent) {
	if !cache.caps.hasRepeat {
		return
	}
	fresh, err := kernel.refetchRepeat()
	if err != nil {
		logf(PriorityInfo, "evdev: resync: repeat info refetch failed, skipping category: %v", err)
		return
	}
	if old.repInfo.Delay != fresh.Delay {
		cache.repInfo.Delay = fresh.Delay
		*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvRepeat, Code: RepDelay, Value: fresh.Delay})
	}
	if old.repInfo.Period != fresh.Period {
		cache.repInfo.Period = fresh.Period
		*delta = append(*delta, InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvRepeat, Code: RepPeriod, Value: fresh.Period})
	}
}
