package rom

import (
	"encoding/binary"

	"github.com/marmos91/vnvheap/storage"
)

// backupHeaderSize is the fixed portion of a backup record: status byte,
// next-chain offset, data size, data alignment.
const backupHeaderSize = 16

// backupList is the NV-resident singly-linked chain of every object's
// backup record. Its head record is
// allocated once, at Manager construction, and never freed; every object
// allocated afterwards is linked in immediately after the head, so the
// list doubles as an enumeration of every identifier this heap has ever
// issued a backup slot for.
type backupList struct {
	headOffset uint64
	drv        storage.Driver
}

// newBackupList initializes a fresh head record (a status byte followed by
// a next-offset word) at headOffset, which the caller must have just
// obtained from NRA with room for backupHeaderSize bytes.
func newBackupList(headOffset uint64, drv storage.Driver) (*backupList, error) {
	b := &backupList{headOffset: headOffset, drv: drv}
	if err := b.writeNext(headOffset, noneOffset); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *backupList) readNext(recordOffset uint64) (uint64, error) {
	var buf [8]byte
	if err := b.drv.Read(recordOffset+1, buf[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(buf[:]), nil
}

func (b *backupList) writeNext(recordOffset, next uint64) error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], next)
	return b.drv.Write(recordOffset+1, buf[:])
}

// link prepends recordOffset to the list, right after the head.
func (b *backupList) link(recordOffset uint64) error {
	oldNext, err := b.readNext(b.headOffset)
	if err != nil {
		return err
	}
	if err := b.writeNext(recordOffset, oldNext); err != nil {
		return err
	}
	return b.writeNext(b.headOffset, recordOffset)
}

// recordSize returns the total NV bytes a backup record occupies for an
// object of the given data layout.
func recordSize(dataSize uint64, dataAlign uint64) uint64 {
	return alignUp(backupHeaderSize, dataAlign) + dataSize
}

func userDataOffset(recordOffset, dataAlign uint64) uint64 {
	return recordOffset + alignUp(backupHeaderSize, dataAlign)
}

// writeRecordHeader writes the fixed header portion (status, next-chain,
// size, align) of a backup record. next is only meaningful the first time
// a record is written (link sets it); subsequent status-only rewrites
// should use writeStatus instead, to avoid clobbering the chain pointer
// with a stale value from before a later insertion.
func writeRecordHeader(drv storage.Driver, recordOffset uint64, status statusFlags, next uint64, dataSize uint32, dataAlign uint16) error {
	var buf [backupHeaderSize]byte
	buf[0] = byte(status)
	binary.NativeEndian.PutUint64(buf[1:9], next)
	binary.NativeEndian.PutUint32(buf[9:13], dataSize)
	binary.NativeEndian.PutUint16(buf[13:15], dataAlign)
	return drv.Write(recordOffset, buf[:])
}

func writeStatus(drv storage.Driver, recordOffset uint64, status statusFlags) error {
	return drv.Write(recordOffset, []byte{byte(status)})
}

func readStatus(drv storage.Driver, recordOffset uint64) (statusFlags, error) {
	var buf [1]byte
	if err := drv.Read(recordOffset, buf[:]); err != nil {
		return 0, err
	}
	return statusFlags(buf[0]), nil
}
