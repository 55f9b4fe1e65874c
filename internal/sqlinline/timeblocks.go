package sqlinline

// QLockUserTimeBlocks serialises time-block writers for one user until the
// surrounding transaction ends.
const QLockUserTimeBlocks = `--sql 13ab3b65-56bb-4afc-be4c-b2f8bb1a38b2
select pg_advisory_xact_lock(hashtext($1::text));
`

const QCheckTimeBlockOverlap = `--sql d141fc3f-04bf-4449-8c1b-f0bf5e6ff37b
select exists(
    select 1
    from time_blocks
    where user_id = $1::uuid
      and start_at < $3::timestamptz
      and end_at > $2::timestamptz
      and ($4::text = '' or id <> nullif($4::text, '')::uuid)
);
`

const QListTimeBlocks = `--sql 04acdb38-3978-4314-b0c4-28271cd3dd2e
select id::text, user_id::text, start_at, end_at, label, note, created_at, updated_at
from time_blocks
where user_id = $1::uuid
  and end_at > $2::timestamptz
  and start_at < $3::timestamptz
order by start_at asc;
`

const QListTimeBlocksByLabel = `--sql b33c776a-d221-47d4-852f-82be514ef048
select id::text, user_id::text, start_at, end_at, label, note, created_at, updated_at
from time_blocks
where label = $1::text
order by user_id asc, start_at asc;
`

const QInsertTimeBlock = `--sql 05e1d690-9e3c-414a-9922-7765d9ea14b5
insert into time_blocks (id, user_id, start_at, end_at, label, note, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::timestamptz, $3::timestamptz, $4::text, $5::text, now(), now())
returning id::text, user_id::text, start_at, end_at, label, note, created_at, updated_at;
`

const QSelectTimeBlockForUpdate = `--sql ee085c3f-c02b-4248-898a-2a22dab58a19
select id::text, user_id::text, start_at, end_at, label, note, created_at, updated_at
from time_blocks
where id = $1::uuid and user_id = $2::uuid
for update;
`

const QUpdateTimeBlock = `--sql 8e0b4495-41fe-4b94-8b9a-d2e22b2c344d
update time_blocks
set start_at = $3::timestamptz,
    end_at = $4::timestamptz,
    label = $5::text,
    note = $6::text,
    updated_at = now()
where id = $1::uuid and user_id = $2::uuid
returning id::text, user_id::text, start_at, end_at, label, note, created_at, updated_at;
`

const QDeleteTimeBlock = `--sql 21954dee-d382-41fe-8411-3a7be4d144c7
delete from time_blocks
where id = $1::uuid and user_id = $2::uuid;
`
