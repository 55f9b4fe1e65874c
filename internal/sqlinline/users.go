package sqlinline

const QInsertUser = `--sql 58ab5ed3-572e-4c56-94ab-d0c9206e6b83
insert into users (id, email, display_name, role, created_at, updated_at)
values (gen_random_uuid(), lower(trim($1::text)), $2::text, $3::text, now(), now())
returning id::text, email, display_name, role, created_at, updated_at;
`

const QSelectUserByID = `--sql 5a09dd4d-7492-4d83-9a05-c97adbfaaf2c
select id::text, email, display_name, role, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QUpdateUserRole = `--sql 76d23630-d88e-4cfe-a224-85c0bf5d1447
update users
set role = $2::text, updated_at = now()
where id = $1::uuid
returning id::text, email, display_name, role, created_at, updated_at;
`

const QListUsers = `--sql 055bfcf2-fb58-4a7c-9ed0-41e2c4c39c46
select id::text, email, display_name, role, created_at, updated_at
from users
order by created_at asc, id asc;
`

const QListMembers = `--sql d4838907-3310-41b8-83f6-d5d67bb80e21
select id::text, display_name, email
from users
where role = 'member'
order by created_at asc, id asc;
`
