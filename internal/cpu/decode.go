package cpu

// execute runs one base-page opcode. Register/pair field layout follows
// the Sharp LR35902's regular blocks (0x40-0xBF, the rr/stk groups, the
// conditional branch groups); the irregular low opcodes and the 0xC0-0xFF
// control block are spelled out explicitly.
func (c *CPU) execute(op uint8) {
	switch {
	case op == 0x76:
		c.execHalt()
		return
	case op >= 0x40 && op <= 0x7F:
		c.execLoadR(op)
		return
	case op >= 0x80 && op <= 0xBF:
		c.execALUR(op)
		return
	}

	switch op {
	case 0x00: // NOP
	case 0x01, 0x11, 0x21, 0x31:
		c.setRR16(op>>4, c.fetch16())
	case 0x02:
		c.writeByte(c.BC(), c.A)
	case 0x12:
		c.writeByte(c.DE(), c.A)
	case 0x22:
		c.writeByte(c.HL(), c.A)
		c.SetHL(c.HL() + 1)
	case 0x32:
		c.writeByte(c.HL(), c.A)
		c.SetHL(c.HL() - 1)
	case 0x03, 0x13, 0x23, 0x33:
		c.tick4()
		c.setRR16(op>>4, c.rr16(op>>4)+1)
	case 0x0B, 0x1B, 0x2B, 0x3B:
		c.tick4()
		c.setRR16(op>>4, c.rr16(op>>4)-1)
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C:
		idx := (op >> 3) & 7
		c.writeR(idx, c.aluInc(c.readR(idx)))
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D:
		idx := (op >> 3) & 7
		c.writeR(idx, c.aluDec(c.readR(idx)))
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E:
		idx := (op >> 3) & 7
		c.writeR(idx, c.fetch())
	case 0x07:
		c.A = c.rlc(c.A)
		c.setFlags(0, keep, keep, keep)
	case 0x0F:
		c.A = c.rrc(c.A)
		c.setFlags(0, keep, keep, keep)
	case 0x17:
		c.A = c.rl(c.A)
		c.setFlags(0, keep, keep, keep)
	case 0x1F:
		c.A = c.rr(c.A)
		c.setFlags(0, keep, keep, keep)
	case 0x08:
		addr := c.fetch16()
		c.writeByte(addr, uint8(c.SP))
		c.writeByte(addr+1, uint8(c.SP>>8))
	case 0x09, 0x19, 0x29, 0x39:
		c.tick4()
		c.addHL(c.rr16(op >> 4))
	case 0x0A:
		c.A = c.readByte(c.BC())
	case 0x1A:
		c.A = c.readByte(c.DE())
	case 0x2A:
		c.A = c.readByte(c.HL())
		c.SetHL(c.HL() + 1)
	case 0x3A:
		c.A = c.readByte(c.HL())
		c.SetHL(c.HL() - 1)
	case 0x10: // STOP
		c.fetch()
		c.execStop()
	case 0x18:
		c.execJR(true)
	case 0x20, 0x28, 0x30, 0x38:
		c.execJR(c.cond(op >> 3 & 3))
	case 0x27:
		c.daa()
	case 0x2F:
		c.cpl()
	case 0x37:
		c.scf()
	case 0x3F:
		c.ccf()

	case 0xC6:
		c.aluAdd(c.fetch())
	case 0xCE:
		c.aluAdc(c.fetch())
	case 0xD6:
		c.aluSub(c.fetch())
	case 0xDE:
		c.aluSbc(c.fetch())
	case 0xE6:
		c.aluAnd(c.fetch())
	case 0xEE:
		c.aluXor(c.fetch())
	case 0xF6:
		c.aluOr(c.fetch())
	case 0xFE:
		c.aluCp(c.fetch())

	case 0xC0, 0xC8, 0xD0, 0xD8:
		c.tick4()
		if c.cond(op >> 3 & 3) {
			c.tick4()
			c.PC = c.pop()
		}
	case 0xC9:
		c.PC = c.pop()
		c.tick4()
	case 0xD9:
		c.PC = c.pop()
		c.irq.IME = true
		c.tick4()

	case 0xC1, 0xD1, 0xE1, 0xF1:
		c.setStk16(op>>4&3, c.pop())
	case 0xC5, 0xD5, 0xE5, 0xF5:
		c.tick4()
		c.push(c.stk16(op >> 4 & 3))

	case 0xC2, 0xCA, 0xD2, 0xDA:
		addr := c.fetch16()
		if c.cond(op >> 3 & 3) {
			c.tick4()
			c.PC = addr
		}
	case 0xC3:
		addr := c.fetch16()
		c.tick4()
		c.PC = addr
	case 0xE9:
		c.PC = c.HL()

	case 0xC4, 0xCC, 0xD4, 0xDC:
		addr := c.fetch16()
		if c.cond(op >> 3 & 3) {
			c.tick4()
			c.push(c.PC)
			c.PC = addr
		}
	case 0xCD:
		addr := c.fetch16()
		c.tick4()
		c.push(c.PC)
		c.PC = addr

	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		c.tick4()
		c.push(c.PC)
		c.PC = uint16(op & 0x38)

	case 0xE0:
		addr := 0xFF00 + uint16(c.fetch())
		c.writeByte(addr, c.A)
	case 0xF0:
		addr := 0xFF00 + uint16(c.fetch())
		c.A = c.readByte(addr)
	case 0xE2:
		c.writeByte(0xFF00+uint16(c.C), c.A)
	case 0xF2:
		c.A = c.readByte(0xFF00 + uint16(c.C))
	case 0xEA:
		c.writeByte(c.fetch16(), c.A)
	case 0xFA:
		c.A = c.readByte(c.fetch16())

	case 0xE8:
		e := int8(c.fetch())
		c.tick4()
		c.tick4()
		c.SP = c.addSPSigned(e)
	case 0xF8:
		e := int8(c.fetch())
		c.tick4()
		c.SetHL(c.addSPSigned(e))
	case 0xF9:
		c.tick4()
		c.SP = c.HL()

	case 0xF3:
		c.irq.IME = false
	case 0xFB:
		c.irq.RequestEI()

	case 0xCB:
		c.executeCB(c.fetch())

	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		c.mode = modeLocked
	}
}

// execLoadR implements the 0x40-0x7F LD r,r' block: bits 3-5 select the
// destination, bits 0-2 the source.
func (c *CPU) execLoadR(op uint8) {
	dst := (op >> 3) & 7
	src := op & 7
	c.writeR(dst, c.readR(src))
}

// execALUR implements the 0x80-0xBF ALU-with-register block: bits 3-5
// select which of the eight ALU ops, bits 0-2 the operand register.
func (c *CPU) execALUR(op uint8) {
	v := c.readR(op & 7)
	switch (op >> 3) & 7 {
	case 0:
		c.aluAdd(v)
	case 1:
		c.aluAdc(v)
	case 2:
		c.aluSub(v)
	case 3:
		c.aluSbc(v)
	case 4:
		c.aluAnd(v)
	case 5:
		c.aluXor(v)
	case 6:
		c.aluOr(v)
	case 7:
		c.aluCp(v)
	}
}

func (c *CPU) execJR(taken bool) {
	e := int8(c.fetch())
	if taken {
		c.tick4()
		c.PC = uint16(int32(c.PC) + int32(e))
	}
}

func (c *CPU) execHalt() {
	if !c.irq.IME && c.hasPendingInterrupt() {
		c.mode = modeHaltBug
		return
	}
	c.mode = modeHalt
}

func (c *CPU) execStop() {
	if c.bus.SpeedSwitchArmed() {
		double := c.bus.CompleteSpeedSwitch()
		c.doubleSpeed = double
		return
	}
	c.mode = modeStop
}

// executeCB runs one CB-prefixed opcode. The whole page is regular: bits
// 0-2 select the operand register (or (HL)), bits 3-5 select either the
// rotate/shift family (x==0), or the bit index for BIT/RES/SET (x==1..3).
func (c *CPU) executeCB(op uint8) {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7

	v := c.readR(z)
	switch x {
	case 0:
		switch y {
		case 0:
			v = c.rlc(v)
		case 1:
			v = c.rrc(v)
		case 2:
			v = c.rl(v)
		case 3:
			v = c.rr(v)
		case 4:
			v = c.sla(v)
		case 5:
			v = c.sra(v)
		case 6:
			v = c.swap(v)
		case 7:
			v = c.srl(v)
		}
		c.writeR(z, v)
	case 1:
		c.bit(y, v)
	case 2:
		c.writeR(z, v&^(1<<y))
	case 3:
		c.writeR(z, v|1<<y)
	}
}
