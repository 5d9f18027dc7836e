package amd64

import "github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"

// CompileStackGrowCallSequence implements backend.Machine.
func (m *machine) CompileStackGrowCallSequence() []byte {
	// TODO
	ud2 := m.allocateInstr().asUD2()
	m.encodeWithoutRelResolution(ud2)
	return m.c.Buf()
}

// SetupPrologue implements backend.Machine.
func (m *machine) SetupPrologue() {
	cur := m.ectx.RootInstr
	prevInitInst := cur.next

	// At this point, we have the stack layout as follows:
	//
	//                   (high address)
	//                 +-----------------+ <----- RBP (somewhere in the middle of the stack)
	//                 |     .......     |
	//                 |      ret Y      |
	//                 |     .......     |
	//                 |      ret 0      |
	//                 |      arg X      |
	//                 |     .......     |
	//                 |      arg 1      |
	//                 |      arg 0      |
	//                 |    Caller_RBP   |
	//                 |   Return Addr   |
	//       RSP ----> +-----------------+
	//                    (low address)

	cur = m.setupRBPRSP(cur)

	if !m.stackBoundsCheckDisabled { //nolint
		// TODO: stack bounds check.
	}

	if size := m.spillSlotSize; size > 0 {
		// Reserve the spill slot area below RBP.
		// 		sub $size, %rsp
		decSP := m.allocateInstr().asAluRmiR(aluRmiROpcodeSub, newOperandImm32(uint32(size)), rspVReg, true)
		cur = linkInstr(cur, decSP)

		// At this point, the stack looks like:
		//
		//            (high address)
		//          +------------------+
		//          |     .......      |
		//          |      ret 0       |
		//          |      arg X       |
		//          |     .......      |
		//          |      arg 0       |
		//          |    Caller_RBP    |
		//          |   ReturnAddress  |
		//          +------------------+ <---- RBP
		//          |   spill slot 0   |
		//          |   ............   |
		//          |   spill slot M   |
		//  RSP---> +------------------+
		//             (low address)
	}

	if regs := m.clobberedRegs; len(regs) > 0 {
		// Every clobbered register gets its own 16-byte aligned slot, regardless of its
		// width, matching the accounting in clobberedRegSlotSize.
		for _, vr := range regs {
			sub := m.allocateInstr().asAluRmiR(aluRmiROpcodeSub, newOperandImm32(16), rspVReg, true)
			cur = linkInstr(cur, sub)

			store := m.allocateInstr()
			mem := newOperandMem(newAmodeImmReg(0, rspVReg))
			if vr.RegType() == regalloc.RegTypeInt {
				store.asMovRM(vr, mem, 8)
			} else {
				store.asXmmMovRM(sseOpcodeMovdqu, vr, mem)
			}
			cur = linkInstr(cur, store)
		}
	}

	linkInstr(cur, prevInitInst)
}

// SetupEpilogue implements backend.Machine.
func (m *machine) SetupEpilogue() {
	ectx := m.ectx
	for cur := ectx.RootInstr; cur != nil; cur = cur.next {
		if cur.kind == ret {
			m.setupEpilogueAfter(cur.prev)
			continue
		}

		// Removes the redundant copy instruction.
		// TODO: doing this in `SetupEpilogue` seems weird. Find a better home.
		if cur.IsCopy() {
			prev, next := cur.prev, cur.next
			// Remove the copy instruction.
			prev.next = next
			if next != nil {
				next.prev = prev
			}
		}
	}
}

func (m *machine) setupEpilogueAfter(cur *instruction) {
	prevNext := cur.next

	// At this point, we have the stack layout as follows:
	//
	//            (high address)
	//          +-----------------+
	//          |     .......     |
	//          |      ret Y      |
	//          |     .......     |
	//          |      ret 0      |
	//          |      arg X      |
	//          |     .......     |
	//          |      arg 1      |
	//          |      arg 0      |
	//          |    Caller_RBP   |
	//          |   ReturnAddress | <--- RBP
	//          +-----------------+
	//          |   spill slot N  |
	//          |   ............  |
	//          |   spill slot 0  |
	//          |    clobbered 0  |
	//          |    clobbered 1  |
	//          |   ............  |
	//          |    clobbered M  |
	//          +-----------------+ <--- RSP
	//             (low address)

	// Restore the clobbered registers, in reverse order of how they were pushed, before
	// rolling back RSP: each occupies its own 16-byte slot, the last one pushed starting at RSP.
	if regs := m.clobberedRegs; len(regs) > 0 {
		for i := len(regs) - 1; i >= 0; i-- {
			vr := regs[i]
			mem := newOperandMem(newAmodeImmReg(0, rspVReg))
			load := m.allocateInstr()
			if vr.RegType() == regalloc.RegTypeInt {
				load.asMov64MR(mem, vr)
			} else {
				load.asXmmUnaryRmR(sseOpcodeMovdqu, mem, vr)
			}
			cur = linkInstr(cur, load)

			inc := m.allocateInstr().asAluRmiR(aluRmiROpcodeAdd, newOperandImm32(16), rspVReg, true)
			cur = linkInstr(cur, inc)
		}
	}

	// Spill slots, like clobbered registers, live entirely below RBP: rolling RSP back to
	// RBP discards them regardless of their size, so no explicit deallocation is needed here.
	cur = m.revertRBPRSP(cur)
	cur = linkInstr(cur, m.allocateInstr().asRet(nil))

	linkInstr(cur, prevNext)
}
